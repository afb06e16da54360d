package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// DefaultMaxRounds caps the loop when no positive limit is configured.
const DefaultMaxRounds = 25

// DefaultSentinelPhrase is the marker the orchestrator is asked to emit
// when the objective is met.
const DefaultSentinelPhrase = "The task is complete:"

// SentinelMatch selects where in a planning response the sentinel may appear.
type SentinelMatch string

const (
	// MatchPrefix only accepts the sentinel at the start of the response.
	MatchPrefix SentinelMatch = "prefix"
	// MatchAnywhere accepts the sentinel anywhere in the response.
	MatchAnywhere SentinelMatch = "anywhere"
)

// ParseSentinelMatch converts a config string into a SentinelMatch.
func ParseSentinelMatch(s string) (SentinelMatch, error) {
	switch m := SentinelMatch(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MatchPrefix, nil
	case MatchPrefix, MatchAnywhere:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sentinel match %q", s)
	}
}

// Sentinel is the completion marker and how to look for it.
type Sentinel struct {
	Phrase string
	Match  SentinelMatch
}

// DefaultSentinel returns the standard prefix-matched sentinel.
func DefaultSentinel() Sentinel {
	return Sentinel{Phrase: DefaultSentinelPhrase, Match: MatchPrefix}
}

// RoleSettings is the model and token budget for one role.
type RoleSettings struct {
	Model     string
	MaxTokens int64
}

// DefaultRoleSettings returns the built-in settings for each role.
func DefaultRoleSettings() map[models.Role]RoleSettings {
	return map[models.Role]RoleSettings{
		models.RolePlanning:  {Model: "claude-opus-4-5-20251101", MaxTokens: 2048},
		models.RoleExecuting: {Model: "claude-haiku-4-5-20251001", MaxTokens: 2048},
		models.RoleRefining:  {Model: "claude-opus-4-5-20251101", MaxTokens: 4096},
	}
}

// RunConfig is the immutable configuration of one run. Each Runner.Run call
// builds its own copy.
type RunConfig struct {
	// Credential is the resolved API key. Empty when ambient credentials
	// (AWS Bedrock) are in use.
	Credential string
	// Roles holds per-role model settings.
	Roles map[models.Role]RoleSettings
	// MaxRounds caps the number of completed exchanges.
	MaxRounds int
	// Sentinel is the completion marker.
	Sentinel Sentinel
	// StartedAt is when the run began.
	StartedAt time.Time
}

// Role returns the settings for r, falling back to the built-in default for
// any missing or zero field.
func (c RunConfig) Role(r models.Role) RoleSettings {
	def := DefaultRoleSettings()[r]
	s, ok := c.Roles[r]
	if !ok {
		return def
	}
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = def.MaxTokens
	}
	return s
}

// withDefaults fills in zero values.
func (c RunConfig) withDefaults() RunConfig {
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if strings.TrimSpace(c.Sentinel.Phrase) == "" {
		c.Sentinel.Phrase = DefaultSentinelPhrase
	}
	if c.Sentinel.Match == "" {
		c.Sentinel.Match = MatchPrefix
	}
	roles := make(map[models.Role]RoleSettings, len(models.Roles()))
	for _, r := range models.Roles() {
		roles[r] = c.Role(r)
	}
	c.Roles = roles
	return c
}
