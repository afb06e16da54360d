package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// capturedRequest holds the fields of a Messages API request body the tests inspect.
type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

const messageResponse = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-haiku-4-5-20251001",
  "content": [{"type": "text", "text": "%s"}],
  "stop_reason": "end_turn",
  "stop_sequence": null,
  "usage": {"input_tokens": 12, "output_tokens": 7}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg ClientConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.APIKey = "sk-ant-test-key"
	cfg.BaseURL = srv.URL + "/"
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func writeMessage(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, strings.Replace(messageResponse, "%s", text, 1))
}

func TestInvoke_Success(t *testing.T) {
	var got capturedRequest
	var gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeMessage(w, "sub-task result")
	}, ClientConfig{})

	text, err := client.Invoke(context.Background(), Request{
		Role:      models.RoleExecuting,
		Model:     "claude-haiku-4-5-20251001",
		System:    "Previous sub-agent tasks:\n",
		Prompt:    "Write it in Python",
		MaxTokens: 2048,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if text != "sub-task result" {
		t.Errorf("text = %q, want %q", text, "sub-task result")
	}
	if gotKey != "sk-ant-test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if got.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d, want 2048", got.MaxTokens)
	}
	if len(got.System) != 1 || got.System[0].Text != "Previous sub-agent tasks:\n" {
		t.Errorf("system = %+v", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content[0].Text != "Write it in Python" {
		t.Errorf("messages = %+v", got.Messages)
	}

	usage := client.Usage().ForRole(models.RoleExecuting)
	if usage.InputTokens != 12 || usage.OutputTokens != 7 || usage.Calls != 1 {
		t.Errorf("executing usage = %+v, want 12/7 over 1 call", usage)
	}
	if planning := client.Usage().ForRole(models.RolePlanning); planning.Calls != 0 {
		t.Errorf("planning usage = %+v, want none", planning)
	}
}

func TestInvoke_OmitsEmptySystem(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		writeMessage(w, "ok")
	}, ClientConfig{})

	if _, err := client.Invoke(context.Background(), Request{
		Role: models.RolePlanning, Model: "m", Prompt: "p", MaxTokens: 10,
	}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if _, ok := raw["system"]; ok {
		t.Errorf("system should be omitted when empty, got %v", raw["system"])
	}
}

func TestInvoke_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, KindAuth},
		{"rate limited", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, KindRateLimit},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`, KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}, ClientConfig{})

			_, err := client.Invoke(context.Background(), Request{Role: models.RolePlanning, Model: "m", Prompt: "p", MaxTokens: 10})
			var me *ModelError
			if !errors.As(err, &me) {
				t.Fatalf("expected ModelError, got %v", err)
			}
			if me.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", me.Kind, tt.wantKind)
			}
			if me.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", me.StatusCode, tt.status)
			}
			if me.Role != models.RolePlanning {
				t.Errorf("Role = %q", me.Role)
			}
			if calls != 1 {
				t.Errorf("server saw %d calls, want exactly 1 (no retries)", calls)
			}
		})
	}
}

func TestInvoke_EmptyResponseIsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, "   ")
	}, ClientConfig{})

	_, err := client.Invoke(context.Background(), Request{Role: models.RoleRefining, Model: "m", Prompt: "p", MaxTokens: 10})
	var me *ModelError
	if !errors.As(err, &me) {
		t.Fatalf("expected ModelError, got %v", err)
	}
	if me.Kind != KindMalformed {
		t.Errorf("Kind = %q, want %q", me.Kind, KindMalformed)
	}
	if !errors.Is(err, ErrEmptyResponse) {
		t.Error("error should wrap ErrEmptyResponse")
	}
}

func TestInvoke_CallTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, ClientConfig{CallTimeout: 50 * time.Millisecond})

	_, err := client.Invoke(context.Background(), Request{Role: models.RoleExecuting, Model: "m", Prompt: "p", MaxTokens: 10})
	var me *ModelError
	if !errors.As(err, &me) {
		t.Fatalf("expected ModelError, got %v", err)
	}
	if me.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", me.Kind, KindTimeout)
	}
}

func TestInvoke_CancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a cancelled context")
	}, ClientConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Invoke(ctx, Request{Role: models.RolePlanning, Model: "m", Prompt: "p", MaxTokens: 10})
	var me *ModelError
	if !errors.As(err, &me) {
		t.Fatalf("expected ModelError, got %v", err)
	}
	if me.Kind != KindCancelled {
		t.Errorf("Kind = %q, want %q", me.Kind, KindCancelled)
	}
}
