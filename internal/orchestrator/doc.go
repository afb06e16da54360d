// Package orchestrator runs the plan, execute, refine loop.
//
// A run is driven by three model roles that share one client:
//   - Orchestrator: reads the objective and prior results, then either emits
//     the next sub-task instruction or reports the objective complete
//   - SubAgentExecutor: carries out one instruction with the summaries of
//     earlier rounds as side context
//   - Refiner: merges every sub-task result into the final artifact
//
// RunLoop alternates planning and execution until the orchestrator reports
// completion, a call fails, the round cap is hit, or the context is
// cancelled. It then refines (unless cancelled) and assembles a
// models.Transcript. Runner is the caller-facing entry point that resolves
// the API credential and builds the per-run client.
//
// Example usage:
//
//	runner, err := orchestrator.NewRunner(orchestrator.RequiredConfig{
//		Credentials: store,
//		NewClient:   factory,
//	}, orchestrator.WithProgressSink(sink))
//	transcript, err := runner.Run(ctx, "Write a haiku about Go", "")
package orchestrator
