package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ShayCichocki/maestro/pkg/models"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "dial tcp: connection refused" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"cancelled", fmt.Errorf("post: %w", context.Canceled), KindCancelled},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout},
		{"empty response", ErrEmptyResponse, KindMalformed},
		{"network", fmt.Errorf("post: %w", fakeNetError{}), KindNetwork},
		{"network timeout", fakeNetError{timeout: true}, KindTimeout},
		{"other", errors.New("boom"), KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			me := classifyError(models.RoleExecuting, tt.err)
			if me.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", me.Kind, tt.want)
			}
			if !errors.Is(me, tt.err) {
				t.Error("ModelError should unwrap to the original error")
			}
		})
	}
}

func TestModelError_Message(t *testing.T) {
	err := &ModelError{Role: models.RolePlanning, Kind: KindAuth, StatusCode: 401, Err: errors.New("invalid key")}
	msg := err.Error()
	for _, part := range []string{"planning", "auth", "401", "invalid key"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Error() = %q, missing %q", msg, part)
		}
	}

	if !IsModelError(fmt.Errorf("round 2: %w", err)) {
		t.Error("IsModelError should see through wrapping")
	}
	if IsModelError(errors.New("plain")) {
		t.Error("IsModelError should be false for plain errors")
	}
}
