package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/ShayCichocki/maestro/pkg/models"
)

type recordingArchive struct {
	mu    sync.Mutex
	saved []*models.Transcript
	err   error
}

func (a *recordingArchive) SaveTranscript(t *models.Transcript) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, t)
	return a.err
}

// setupRunner builds a Runner whose factory hands out client and records
// the RunConfig it was given.
func setupRunner(t *testing.T, store CredentialStore, client *fakeClient, opts ...Option) (*Runner, *[]RunConfig) {
	t.Helper()
	var configs []RunConfig
	factory := func(cfg RunConfig) (ModelClient, error) {
		configs = append(configs, cfg)
		return client, nil
	}
	runner, err := NewRunner(RequiredConfig{Credentials: store, NewClient: factory}, opts...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return runner, &configs
}

func completingClient() *fakeClient {
	return newFakeClient().
		on(models.RolePlanning, ok("t1"), ok("The task is complete: done")).
		on(models.RoleExecuting, ok("r1")).
		on(models.RoleRefining, ok("final"))
}

func TestRunnerEmptyObjective(t *testing.T) {
	runner, configs := setupRunner(t, &memStore{key: "sk-ant-stored"}, newFakeClient())

	for _, objective := range []string{"", "   \n"} {
		_, err := runner.Run(context.Background(), objective, "")
		if !errors.Is(err, ErrEmptyObjective) {
			t.Errorf("Run(%q) error = %v, want ErrEmptyObjective", objective, err)
		}
	}
	if len(*configs) != 0 {
		t.Error("client factory should not be called for an empty objective")
	}
}

func TestRunnerNoCredential(t *testing.T) {
	client := newFakeClient()
	runner, configs := setupRunner(t, &memStore{}, client)

	_, err := runner.Run(context.Background(), "obj", "  ")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("Run() error = %v, want ErrNoCredential", err)
	}
	if len(*configs) != 0 || len(client.roles()) != 0 {
		t.Error("no client or model call should happen without a credential")
	}
}

func TestRunnerCredentialStoreReadError(t *testing.T) {
	runner, _ := setupRunner(t, &memStore{getErr: errors.New("keychain locked")}, newFakeClient())

	_, err := runner.Run(context.Background(), "obj", "")
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("Run() error = %v, want ErrNoCredential", err)
	}
}

func TestRunnerCredentialPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		stored      string
		override    string
		setErr      error
		wantKey     string
		wantPersist []string
	}{
		{"override wins and is persisted", "sk-ant-old", "sk-ant-new", nil, "sk-ant-new", []string{"sk-ant-new"}},
		{"override persisted when nothing stored", "", "sk-ant-new", nil, "sk-ant-new", []string{"sk-ant-new"}},
		{"stored used without persisting", "sk-ant-old", "", nil, "sk-ant-old", nil},
		{"persist failure is not fatal", "", "sk-ant-new", errors.New("disk full"), "sk-ant-new", []string{"sk-ant-new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{key: tt.stored, setErr: tt.setErr}
			runner, configs := setupRunner(t, store, completingClient())

			tr, err := runner.Run(context.Background(), "obj", tt.override)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if tr == nil {
				t.Fatal("expected a transcript")
			}
			if got := (*configs)[0].Credential; got != tt.wantKey {
				t.Errorf("credential = %q, want %q", got, tt.wantKey)
			}
			if !equalStrings(store.sets, tt.wantPersist) {
				t.Errorf("persisted = %v, want %v", store.sets, tt.wantPersist)
			}
		})
	}
}

func TestRunnerClientFactoryError(t *testing.T) {
	factoryErr := errors.New("bad endpoint")
	runner, err := NewRunner(RequiredConfig{
		Credentials: &memStore{key: "sk-ant-stored"},
		NewClient:   func(RunConfig) (ModelClient, error) { return nil, factoryErr },
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	_, err = runner.Run(context.Background(), "obj", "")
	if !errors.Is(err, factoryErr) {
		t.Errorf("Run() error = %v, want wrapped factory error", err)
	}
}

func TestRunnerRunConfig(t *testing.T) {
	client := completingClient()
	runner, configs := setupRunner(t, &memStore{key: "sk-ant-stored"}, client,
		WithMaxRounds(-1),
		WithSentinel(Sentinel{Phrase: "The task is complete:", Match: MatchAnywhere}),
		WithRole(models.RoleExecuting, RoleSettings{Model: "claude-sonnet-4-5", MaxTokens: 1000}),
	)

	if _, err := runner.Run(context.Background(), "obj", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cfg := (*configs)[0]
	if cfg.MaxRounds != DefaultMaxRounds {
		t.Errorf("MaxRounds = %d, want %d", cfg.MaxRounds, DefaultMaxRounds)
	}
	if cfg.Sentinel.Match != MatchAnywhere {
		t.Errorf("Sentinel.Match = %s, want anywhere", cfg.Sentinel.Match)
	}
	if got := cfg.Role(models.RolePlanning).Model; got != "claude-opus-4-5-20251101" {
		t.Errorf("planning model = %q, want default", got)
	}

	req := client.calls(models.RoleExecuting)[0]
	if req.Model != "claude-sonnet-4-5" || req.MaxTokens != 1000 {
		t.Errorf("executing request = %s/%d, want claude-sonnet-4-5/1000", req.Model, req.MaxTokens)
	}
}

func TestRunnerTranscriptAndArchive(t *testing.T) {
	archive := &recordingArchive{}
	sink := &recordingSink{}
	runner, _ := setupRunner(t, &memStore{key: "sk-ant-stored"}, completingClient(),
		WithArchive(archive),
		WithProgressSink(sink),
		WithIDGenerator(func() string { return "run-1" }),
	)

	tr, err := runner.Run(context.Background(), "  obj  ", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tr.ID != "run-1" {
		t.Errorf("ID = %q, want run-1", tr.ID)
	}
	if tr.Objective != "obj" {
		t.Errorf("Objective = %q, want trimmed objective", tr.Objective)
	}
	if tr.StartedAt.IsZero() || tr.FinishedAt.Before(tr.StartedAt) {
		t.Errorf("timestamps = %v .. %v", tr.StartedAt, tr.FinishedAt)
	}
	if len(archive.saved) != 1 || archive.saved[0] != tr {
		t.Errorf("archive saved %d transcripts, want this one", len(archive.saved))
	}
	// Run waits for queued progress before returning
	if got := sink.all(); len(got) != 8 {
		t.Errorf("sink messages = %d, want 8", len(got))
	}
}

func TestRunnerArchiveFailureIsNotFatal(t *testing.T) {
	archive := &recordingArchive{err: errors.New("database is locked")}
	runner, _ := setupRunner(t, &memStore{key: "sk-ant-stored"}, completingClient(), WithArchive(archive))

	tr, err := runner.Run(context.Background(), "obj", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tr.Cause != models.CauseCompletion {
		t.Errorf("Cause = %s, want completion", tr.Cause)
	}
}

func TestRunnerDefaultIDIsUUID(t *testing.T) {
	runner, _ := setupRunner(t, &memStore{key: "sk-ant-stored"}, completingClient())

	tr, err := runner.Run(context.Background(), "obj", "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(tr.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", tr.ID)
	}
}

func TestRunnerAmbientCredentials(t *testing.T) {
	var got RunConfig
	runner, err := NewRunner(RequiredConfig{
		NewClient: func(cfg RunConfig) (ModelClient, error) {
			got = cfg
			return completingClient(), nil
		},
	}, WithAmbientCredentials(true))
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	if _, err := runner.Run(context.Background(), "obj", ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Credential != "" {
		t.Errorf("Credential = %q, want empty", got.Credential)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	factory := func(RunConfig) (ModelClient, error) { return newFakeClient(), nil }

	if _, err := NewRunner(RequiredConfig{Credentials: &memStore{}}); err == nil {
		t.Error("expected error without a client factory")
	}
	if _, err := NewRunner(RequiredConfig{NewClient: factory}); err == nil {
		t.Error("expected error without a credential store")
	}
	if _, err := NewRunner(RequiredConfig{Credentials: &memStore{}, NewClient: factory},
		WithRole(models.Role("reviewing"), RoleSettings{Model: "m", MaxTokens: 1})); err == nil {
		t.Error("expected error for an unknown role")
	}
}

func TestWarnDropped(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })

	r := NewReporter(nil, nil)
	warnDropped("run-1", r)
	if buf.Len() != 0 {
		t.Errorf("no warning expected without drops, got %q", buf.String())
	}

	r.dropped.Add(3)
	warnDropped("run-1", r)
	if !strings.Contains(buf.String(), "run run-1: 3 progress messages were not delivered") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}

func TestRunnerConcurrentRuns(t *testing.T) {
	factory := func(RunConfig) (ModelClient, error) { return completingClient(), nil }
	runner, err := NewRunner(RequiredConfig{Credentials: &memStore{key: "sk-ant-stored"}, NewClient: factory})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := runner.Run(context.Background(), "obj", "")
			if err != nil {
				errs <- err
				return
			}
			if len(tr.Exchanges) != 1 {
				errs <- errors.New("unexpected exchange count")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
