package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	traceMu     sync.RWMutex
	traceLogger *DebugLogger
)

// setPackageLogger installs the logger that debugLog writes to. Roles and
// the run loop trace through debugLog instead of carrying a logger field.
func setPackageLogger(l *DebugLogger) {
	traceMu.Lock()
	traceLogger = l
	traceMu.Unlock()
}

func debugLog(format string, args ...interface{}) {
	traceMu.RLock()
	l := traceLogger
	traceMu.RUnlock()
	l.Log(format, args...)
}

// DebugLogger appends run traces (round transitions, model call outcomes,
// delivery warnings) to a file. A nil DebugLogger, or one opened with an
// empty path, discards everything.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger opens logPath for appending, creating its directory.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{file: f}
	l.Log("=== maestro debug log started at %s (pid %d) ===", time.Now().Format(time.RFC3339), os.Getpid())
	return l, nil
}

// Log appends one line prefixed with the wall-clock time.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.file.WriteString(line)
	l.file.Sync()
}

// Close flushes and closes the file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
