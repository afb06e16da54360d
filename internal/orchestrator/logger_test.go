package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLoggerWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger() error = %v", err)
	}
	l.Log("[runLoop] round %d", 3)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "=== maestro debug log started at") {
		t.Error("missing header line")
	}
	if !strings.Contains(content, "] [runLoop] round 3\n") {
		t.Errorf("missing log line in %q", content)
	}
}

func TestDebugLoggerNoop(t *testing.T) {
	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger(\"\") error = %v", err)
	}
	l.Log("ignored")
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var nilLogger *DebugLogger
	nilLogger.Log("ignored")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestDebugLogRoutesToPackageLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger() error = %v", err)
	}
	setPackageLogger(l)
	t.Cleanup(func() { setPackageLogger(nil) })

	debugLog("[runner] run %s started", "abc")
	setPackageLogger(nil)
	debugLog("[runner] dropped after detach")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[runner] run abc started") {
		t.Errorf("trace line missing from %q", data)
	}
	if strings.Contains(string(data), "dropped after detach") {
		t.Errorf("line written after detach: %q", data)
	}
}
