package orchestrator

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressSink receives human-readable progress text. Notify must not be
// relied on for control flow; the loop never waits on it.
type ProgressSink interface {
	Notify(message string)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(message string)

// Notify calls f(message).
func (f SinkFunc) Notify(message string) {
	f(message)
}

// reporterQueueSize bounds how far the loop can run ahead of a slow sink.
const reporterQueueSize = 256

// reporterDrainTimeout bounds how long Close waits for a stalled sink.
const reporterDrainTimeout = 2 * time.Second

// Reporter fans progress out to a ProgressSink and an EventEmitter.
// Sink delivery happens on a separate goroutine in order; a sink that
// panics or stalls never reaches the loop. A nil *Reporter is a no-op.
type Reporter struct {
	sink   ProgressSink
	events *EventEmitter

	queue   chan string
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewReporter creates a Reporter. Either argument may be nil.
func NewReporter(sink ProgressSink, events *EventEmitter) *Reporter {
	r := &Reporter{sink: sink, events: events, done: make(chan struct{})}
	if sink == nil {
		close(r.done)
		return r
	}
	r.queue = make(chan string, reporterQueueSize)
	go r.deliver()
	return r
}

// Report publishes one progress update.
func (r *Reporter) Report(t EventType, round int, message string) {
	r.publish(ProgressEvent{Type: t, Round: round, Message: message})
}

func (r *Reporter) publish(ev ProgressEvent) {
	if r == nil {
		return
	}
	ev.Timestamp = time.Now()
	debugLog("[progress] %s round=%d", ev.Type, ev.Round)
	r.events.Emit(ev)

	if r.queue == nil || !ev.Type.sinkVisible() {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev.Message:
	case <-time.After(100 * time.Millisecond):
		count := r.dropped.Add(1)
		if count%10 == 1 {
			log.Printf("[progress] WARNING: progress sink is not keeping up, dropped message (total dropped: %d)", count)
		}
	}
}

// Dropped returns how many messages never reached the sink.
func (r *Reporter) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Close stops accepting messages and waits until queued messages have been
// handed to the sink, giving up after reporterDrainTimeout.
func (r *Reporter) Close() {
	if r == nil {
		return
	}
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		if r.queue != nil {
			close(r.queue)
		}
	}
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-time.After(reporterDrainTimeout):
		log.Printf("[progress] WARNING: progress sink still busy after %s, not waiting", reporterDrainTimeout)
	}
}

func (r *Reporter) deliver() {
	defer close(r.done)
	for msg := range r.queue {
		r.notify(msg)
	}
}

func (r *Reporter) notify(msg string) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[progress] WARNING: progress sink panicked: %v", p)
		}
	}()
	r.sink.Notify(msg)
}
