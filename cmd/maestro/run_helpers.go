package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/internal/config"
	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/internal/state"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// roleSettings maps the per-role model config onto orchestrator settings.
func roleSettings(cfg *config.Config) map[models.Role]orchestrator.RoleSettings {
	toSettings := func(m config.ModelConfig) orchestrator.RoleSettings {
		return orchestrator.RoleSettings{Model: m.Model, MaxTokens: m.MaxTokens}
	}
	return map[models.Role]orchestrator.RoleSettings{
		models.RolePlanning:  toSettings(cfg.Models.Planning),
		models.RoleExecuting: toSettings(cfg.Models.Executing),
		models.RoleRefining:  toSettings(cfg.Models.Refining),
	}
}

// runnerOptions builds the Runner options that come from configuration.
func runnerOptions(cfg *config.Config) ([]orchestrator.Option, error) {
	match, err := orchestrator.ParseSentinelMatch(cfg.Loop.SentinelMatch)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithMaxRounds(cfg.Loop.MaxRounds),
		orchestrator.WithSentinel(orchestrator.Sentinel{Phrase: cfg.Loop.Sentinel, Match: match}),
		orchestrator.WithAmbientCredentials(cfg.Anthropic.UseBedrock),
	}
	for role, s := range roleSettings(cfg) {
		opts = append(opts, orchestrator.WithRole(role, s))
	}
	return opts, nil
}

// newClientFactory returns a factory that builds an api.Client per run.
// Every client records its token spend into usage.
func newClientFactory(cfg *config.Config, usage *api.UsageTracker) orchestrator.ClientFactory {
	return func(rc orchestrator.RunConfig) (orchestrator.ModelClient, error) {
		client, err := api.NewClient(api.ClientConfig{
			APIKey:            rc.Credential,
			UseAWSBedrock:     cfg.Anthropic.UseBedrock,
			AWSRegion:         cfg.Anthropic.AWSRegion,
			AWSProfile:        cfg.Anthropic.AWSProfile,
			RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
			CallTimeout:       cfg.Loop.CallTimeout,
			Usage:             usage,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// historyDBPath returns the archive location, honouring history.db_path.
func historyDBPath(cfg *config.Config) string {
	if cfg.History.DBPath != "" {
		return cfg.History.DBPath
	}
	return state.GlobalDBPath()
}

// consoleSink prints progress messages as they arrive.
type consoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	bullet *color.Color
	body   *color.Color
	failed *color.Color
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{
		out:    out,
		bullet: color.New(color.FgMagenta, color.Bold),
		body:   color.New(color.Reset),
		failed: color.New(color.FgRed),
	}
}

// Notify implements orchestrator.ProgressSink.
func (s *consoleSink) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := s.body
	if strings.HasPrefix(message, "Refinement failed:") {
		body = s.failed
	}
	s.bullet.Fprint(s.out, "▸ ")
	body.Fprintln(s.out, message)
	fmt.Fprintln(s.out)
}

// printSummary writes the outcome of a run followed by the token spend per role.
func printSummary(out io.Writer, t *models.Transcript, usage *api.UsageTracker) {
	label := color.New(color.FgGreen, color.Bold)
	if t.Cause == models.CauseFailure {
		label = color.New(color.FgRed, color.Bold)
	} else if t.Cause != models.CauseCompletion {
		label = color.New(color.FgYellow, color.Bold)
	}

	label.Fprintf(out, "Run %s: %s", t.Cause, t.Cause.Description())
	fmt.Fprintf(out, " (%d rounds, id %s)\n", t.Rounds(), t.ID)
	if t.FailureReason != "" {
		color.New(color.FgRed).Fprintf(out, "  %s\n", t.FailureReason)
	}
	if t.RefinementError != "" {
		color.New(color.FgRed).Fprintf(out, "  refinement: %s\n", t.RefinementError)
	}
	if usage != nil {
		printUsage(out, usage)
	}
}

func printUsage(out io.Writer, usage *api.UsageTracker) {
	total := usage.Total()
	if total.Calls == 0 {
		return
	}
	dim := color.New(color.Faint)
	for _, role := range models.Roles() {
		u := usage.ForRole(role)
		if u.Calls == 0 {
			continue
		}
		dim.Fprintf(out, "  %-14s %d calls, %d in / %d out tokens\n", role.DisplayName()+":", u.Calls, u.InputTokens, u.OutputTokens)
	}
	dim.Fprintf(out, "  %-14s %d calls, %d in / %d out tokens\n", "Total:", total.Calls, total.InputTokens, total.OutputTokens)
}
