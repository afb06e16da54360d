package orchestrator

import (
	"context"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// Refiner is the consolidation role. It is called at most once per run.
type Refiner struct {
	client   ModelClient
	settings RoleSettings
	reporter *Reporter
}

// NewRefiner creates the consolidation role for one run.
func NewRefiner(client ModelClient, cfg RunConfig, reporter *Reporter) *Refiner {
	return &Refiner{
		client:   client,
		settings: cfg.Role(models.RoleRefining),
		reporter: reporter,
	}
}

// Refine merges results, in order, into the final artifact.
func (r *Refiner) Refine(ctx context.Context, objective string, results []string) (string, error) {
	round := len(results)
	r.reporter.Report(EventRefineStarted, round, msgRefineStarted)

	artifact, err := r.client.Invoke(ctx, api.Request{
		Role:      models.RoleRefining,
		Model:     r.settings.Model,
		Prompt:    RefinePrompt(objective, results),
		MaxTokens: r.settings.MaxTokens,
	})
	if err != nil {
		debugLog("[refiner] refinement call failed: %v", err)
		r.reporter.Report(EventRefineCompleted, round, msgRefineFailed(err))
		return "", err
	}
	r.reporter.Report(EventRefineCompleted, round, msgRefineCompleted)

	r.reporter.Report(EventFinalOutput, round, msgFinalOutput(artifact))
	return artifact, nil
}
