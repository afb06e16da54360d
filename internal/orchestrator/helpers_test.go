package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// reply is one scripted model response.
type reply struct {
	text string
	err  error
}

func ok(text string) reply { return reply{text: text} }

func failed(role models.Role, kind api.ErrorKind) reply {
	return reply{err: &api.ModelError{Role: role, Kind: kind, Err: errors.New("scripted " + string(kind))}}
}

var errUnscripted = errors.New("no scripted reply")

// fakeClient replays scripted responses per role and records every request.
type fakeClient struct {
	mu       sync.Mutex
	replies  map[models.Role][]reply
	requests []api.Request
	// onInvoke runs before the reply is chosen; tests use it to cancel.
	onInvoke func(req api.Request)
}

func newFakeClient() *fakeClient {
	return &fakeClient{replies: make(map[models.Role][]reply)}
}

func (f *fakeClient) on(role models.Role, replies ...reply) *fakeClient {
	f.replies[role] = append(f.replies[role], replies...)
	return f
}

func (f *fakeClient) Invoke(ctx context.Context, req api.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	hook := f.onInvoke
	f.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if err := ctx.Err(); err != nil {
		return "", &api.ModelError{Role: req.Role, Kind: api.KindCancelled, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.replies[req.Role]
	if len(queue) == 0 {
		return "", &api.ModelError{Role: req.Role, Kind: api.KindAPI, Err: errUnscripted}
	}
	r := queue[0]
	f.replies[req.Role] = queue[1:]
	return r.text, r.err
}

func (f *fakeClient) calls(role models.Role) []api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Request
	for _, r := range f.requests {
		if r.Role == role {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeClient) roles() []models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Role, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Role
	}
	return out
}

// recordingSink collects progress messages.
type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// memStore is an in-memory CredentialStore.
type memStore struct {
	mu     sync.Mutex
	key    string
	getErr error
	setErr error
	sets   []string
}

func (m *memStore) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key, m.getErr
}

func (m *memStore) Set(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, key)
	if m.setErr != nil {
		return m.setErr
	}
	m.key = key
	return nil
}

// drain collects every event until the emitter is closed.
func drain(e *EventEmitter) []ProgressEvent {
	e.Close()
	var out []ProgressEvent
	for ev := range e.Events() {
		out = append(out, ev)
	}
	return out
}
