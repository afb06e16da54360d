// Package signals lets one maestro process ask another to stop through a
// signal file, so a running loop can be cancelled from a second terminal.
package signals

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// stopFile is the name of the file whose creation requests a stop.
const stopFile = "stop"

// StopWatcher watches a signals directory for a stop request.
type StopWatcher struct {
	dir string

	mu      sync.RWMutex
	stopped bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
	stopCh  chan struct{}
}

// DefaultDir returns the signals directory for the given working directory.
func DefaultDir(workDir string) string {
	return filepath.Join(workDir, ".maestro", "signals")
}

// NewStopWatcher creates the signals directory if needed and starts watching it.
// A stale stop file left by an earlier run is removed first.
func NewStopWatcher(dir string) (*StopWatcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}
	_ = os.Remove(filepath.Join(dir, stopFile))

	sw := &StopWatcher{
		dir:    dir,
		done:   make(chan struct{}),
		stopCh: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - ShouldStop still polls the file
		return sw, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watch()

	return sw, nil
}

// watch monitors the signals directory for the stop file.
func (sw *StopWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == stopFile && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				sw.markStopped()
			}
		case _, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			// Ignore errors, keep watching
		}
	}
}

func (sw *StopWatcher) markStopped() {
	sw.mu.Lock()
	sw.stopped = true
	sw.mu.Unlock()
	sw.once.Do(func() { close(sw.stopCh) })
}

// ShouldStop returns true if a stop has been requested.
func (sw *StopWatcher) ShouldStop() bool {
	// Also check the file directly in case the watcher missed it
	if _, err := os.Stat(filepath.Join(sw.dir, stopFile)); err == nil {
		sw.markStopped()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stopped
}

// Stopped returns a channel that is closed once a stop is observed.
func (sw *StopWatcher) Stopped() <-chan struct{} {
	return sw.stopCh
}

// WithStop returns a context that is cancelled when a stop is requested.
// Without a working fsnotify watcher the stop file is polled every pollEvery.
func (sw *StopWatcher) WithStop(parent context.Context, pollEvery time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	var tick <-chan time.Time
	if sw.watcher == nil {
		if pollEvery <= 0 {
			pollEvery = time.Second
		}
		ticker := time.NewTicker(pollEvery)
		tick = ticker.C
		go func() {
			<-ctx.Done()
			ticker.Stop()
		}()
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sw.stopCh:
				cancel()
				return
			case <-tick:
				if sw.ShouldStop() {
					cancel()
					return
				}
			}
		}
	}()

	return ctx, cancel
}

// RequestStop writes the stop file into dir.
func RequestStop(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create signals directory: %w", err)
	}
	path := filepath.Join(dir, stopFile)
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Close shuts down the watcher.
func (sw *StopWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
