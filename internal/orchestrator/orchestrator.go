package orchestrator

import (
	"context"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// Orchestrator is the planning role. It decides the next sub-task or
// reports that the objective is met.
type Orchestrator struct {
	client   ModelClient
	settings RoleSettings
	sentinel Sentinel
	reporter *Reporter
}

// NewOrchestrator creates the planning role for one run.
func NewOrchestrator(client ModelClient, cfg RunConfig, reporter *Reporter) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		client:   client,
		settings: cfg.Role(models.RolePlanning),
		sentinel: cfg.Sentinel,
		reporter: reporter,
	}
}

// Plan asks the planning model for the next step. Failures come back as a
// PlanFailed outcome rather than an error.
func (o *Orchestrator) Plan(ctx context.Context, objective string, priorResults []string) PlanOutcome {
	round := len(priorResults) + 1
	o.reporter.Report(EventPlanStarted, round, msgPlanStarted(objective))

	raw, err := o.client.Invoke(ctx, api.Request{
		Role:      models.RolePlanning,
		Model:     o.settings.Model,
		Prompt:    PlanningPrompt(objective, o.sentinel.Phrase, priorResults),
		MaxTokens: o.settings.MaxTokens,
	})
	if err != nil {
		debugLog("[orchestrator] round %d: planning call failed: %v", round, err)
		return PlanOutcome{Kind: PlanFailed, Err: err}
	}

	outcome := ParsePlan(raw, o.sentinel)
	debugLog("[orchestrator] round %d: plan outcome %s (%d chars)", round, outcome.Kind, len(raw))

	switch outcome.Kind {
	case PlanNextTask:
		o.reporter.Report(EventTaskDispatched, round, msgTaskDispatched(outcome.Instruction))
	case PlanComplete:
		o.reporter.Report(EventPlanCompleted, round, msgPlanCompleted(outcome.Note))
	}
	return outcome
}
