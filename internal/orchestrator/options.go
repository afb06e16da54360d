package orchestrator

import "github.com/ShayCichocki/maestro/pkg/models"

// RequiredConfig contains the minimal required configuration for a Runner.
type RequiredConfig struct {
	// Credentials resolves and persists the API key.
	Credentials CredentialStore
	// NewClient builds the model client for each run.
	NewClient ClientFactory
}

// Option configures a Runner. Use With* functions to create Options.
type Option func(*runnerOptions)

// runnerOptions holds all optional configuration.
type runnerOptions struct {
	roles              map[models.Role]RoleSettings
	maxRounds          int
	sentinel           Sentinel
	sink               ProgressSink
	events             *EventEmitter
	archive            Archive
	logger             *DebugLogger
	ambientCredentials bool
	newID              func() string
}

// WithRole sets the model settings for one role.
func WithRole(role models.Role, s RoleSettings) Option {
	return func(o *runnerOptions) { o.roles[role] = s }
}

// WithMaxRounds sets the round cap. Values <= 0 use DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(o *runnerOptions) { o.maxRounds = n }
}

// WithSentinel sets the completion marker and match mode.
func WithSentinel(s Sentinel) Option {
	return func(o *runnerOptions) { o.sentinel = s }
}

// WithProgressSink sets the receiver of progress text.
func WithProgressSink(s ProgressSink) Option {
	return func(o *runnerOptions) { o.sink = s }
}

// WithEventEmitter sets the emitter that receives structured progress events.
func WithEventEmitter(e *EventEmitter) Option {
	return func(o *runnerOptions) { o.events = e }
}

// WithArchive sets where finished transcripts are saved.
func WithArchive(a Archive) Option {
	return func(o *runnerOptions) { o.archive = a }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *runnerOptions) { o.logger = l }
}

// WithAmbientCredentials lets a run proceed without an API key, for
// clients that authenticate another way (AWS Bedrock).
func WithAmbientCredentials(b bool) Option {
	return func(o *runnerOptions) { o.ambientCredentials = b }
}

// WithIDGenerator overrides how run IDs are generated (mainly for testing).
func WithIDGenerator(f func() string) Option {
	return func(o *runnerOptions) { o.newID = f }
}
