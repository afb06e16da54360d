package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Runner is the caller-facing entry point. It is safe for concurrent Run
// calls; each call builds its own config, client and history.
type Runner struct {
	req  RequiredConfig
	opts runnerOptions
}

// NewRunner creates a Runner.
func NewRunner(req RequiredConfig, opts ...Option) (*Runner, error) {
	if req.NewClient == nil {
		return nil, errors.New("client factory is required")
	}

	o := runnerOptions{
		roles:    make(map[models.Role]RoleSettings),
		sentinel: DefaultSentinel(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	for role := range o.roles {
		if !role.Valid() {
			return nil, fmt.Errorf("unknown model role %q", role)
		}
	}
	if req.Credentials == nil && !o.ambientCredentials {
		return nil, errors.New("credential store is required")
	}
	if o.logger != nil {
		setPackageLogger(o.logger)
	}

	return &Runner{req: req, opts: o}, nil
}

// Run executes one objective to completion and returns its transcript.
// Only ErrEmptyObjective, ErrNoCredential and client construction failures
// are returned as errors; everything else is recorded on the transcript.
func (r *Runner) Run(ctx context.Context, objective, credentialOverride string) (*models.Transcript, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, ErrEmptyObjective
	}

	credential, err := r.resolveCredential(credentialOverride)
	if err != nil {
		return nil, err
	}

	cfg := r.runConfig(credential)
	client, err := r.req.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	reporter := NewReporter(r.opts.sink, r.opts.events)
	loop := NewRunLoop(client, cfg, reporter)

	id := r.opts.newID()
	debugLog("[runner] run %s started: max_rounds=%d sentinel_match=%s", id, cfg.MaxRounds, cfg.Sentinel.Match)

	transcript := loop.Run(ctx, objective)
	transcript.ID = id
	transcript.StartedAt = cfg.StartedAt
	reporter.Close()
	warnDropped(id, reporter)

	debugLog("[runner] run %s finished: cause=%s rounds=%d refined=%v", id, transcript.Cause, transcript.Rounds(), transcript.Refined)

	if r.opts.archive != nil {
		if err := r.opts.archive.SaveTranscript(transcript); err != nil {
			log.Printf("[runner] WARNING: failed to archive transcript %s: %v", id, err)
		}
	}
	return transcript, nil
}

// warnDropped reports progress messages a stalled sink never received.
func warnDropped(id string, r *Reporter) {
	if n := r.Dropped(); n > 0 {
		log.Printf("[runner] WARNING: run %s: %d progress messages were not delivered", id, n)
	}
}

// resolveCredential applies the override-then-stored precedence. An override
// is persisted for later runs; a failure to persist is not fatal.
func (r *Runner) resolveCredential(override string) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		if r.req.Credentials != nil {
			if err := r.req.Credentials.Set(key); err != nil {
				log.Printf("[runner] WARNING: failed to persist API key: %v", err)
			}
		}
		return key, nil
	}

	if r.req.Credentials != nil {
		stored, err := r.req.Credentials.Get()
		if err != nil {
			if r.opts.ambientCredentials {
				log.Printf("[runner] WARNING: failed to read stored API key: %v", err)
				return "", nil
			}
			return "", fmt.Errorf("%w: read stored credential: %v", ErrNoCredential, err)
		}
		if stored = strings.TrimSpace(stored); stored != "" {
			return stored, nil
		}
	}

	if r.opts.ambientCredentials {
		return "", nil
	}
	return "", ErrNoCredential
}

func (r *Runner) runConfig(credential string) RunConfig {
	roles := make(map[models.Role]RoleSettings, len(r.opts.roles))
	for role, s := range r.opts.roles {
		roles[role] = s
	}
	return RunConfig{
		Credential: credential,
		Roles:      roles,
		MaxRounds:  r.opts.maxRounds,
		Sentinel:   r.opts.sentinel,
		StartedAt:  time.Now(),
	}.withDefaults()
}
