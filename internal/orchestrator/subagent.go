package orchestrator

import (
	"context"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// SubAgentExecutor is the execution role. It carries out one instruction.
type SubAgentExecutor struct {
	client   ModelClient
	settings RoleSettings
	reporter *Reporter
}

// NewSubAgentExecutor creates the execution role for one run.
func NewSubAgentExecutor(client ModelClient, cfg RunConfig, reporter *Reporter) *SubAgentExecutor {
	return &SubAgentExecutor{
		client:   client,
		settings: cfg.Role(models.RoleExecuting),
		reporter: reporter,
	}
}

// Execute runs instruction with the summaries of earlier rounds as system
// context and returns the raw response text.
func (e *SubAgentExecutor) Execute(ctx context.Context, instruction string, priorSummaries []string) (string, error) {
	round := len(priorSummaries) + 1

	result, err := e.client.Invoke(ctx, api.Request{
		Role:      models.RoleExecuting,
		Model:     e.settings.Model,
		System:    SubAgentContext(priorSummaries),
		Prompt:    instruction,
		MaxTokens: e.settings.MaxTokens,
	})
	if err != nil {
		debugLog("[subagent] round %d: execution call failed: %v", round, err)
		return "", err
	}

	debugLog("[subagent] round %d: result %d chars", round, len(result))
	e.reporter.Report(EventTaskCompleted, round, msgTaskCompleted(result))
	return result, nil
}
