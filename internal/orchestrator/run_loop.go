package orchestrator

import (
	"context"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// loopState is the position of a RunLoop in its state machine.
type loopState int

const (
	statePlanning loopState = iota
	stateExecuting
	stateTerminated
)

func (s loopState) String() string {
	switch s {
	case statePlanning:
		return "planning"
	case stateExecuting:
		return "executing"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RunLoop alternates planning and execution until a termination cause is
// reached, then refines and assembles the transcript.
type RunLoop struct {
	orchestrator *Orchestrator
	executor     *SubAgentExecutor
	refiner      *Refiner
	maxRounds    int
	reporter     *Reporter
}

// NewRunLoop wires the three roles around one shared client.
func NewRunLoop(client ModelClient, cfg RunConfig, reporter *Reporter) *RunLoop {
	cfg = cfg.withDefaults()
	return &RunLoop{
		orchestrator: NewOrchestrator(client, cfg, reporter),
		executor:     NewSubAgentExecutor(client, cfg, reporter),
		refiner:      NewRefiner(client, cfg, reporter),
		maxRounds:    cfg.MaxRounds,
		reporter:     reporter,
	}
}

// loopRun is the mutable state of a single Run call.
type loopRun struct {
	objective   string
	history     History
	state       loopState
	instruction string
	note        string
	cause       models.TerminationCause
	abort       *RunAbortedError
}

// Run drives one objective to termination. It always returns a transcript;
// call failures are recorded on it rather than returned.
func (l *RunLoop) Run(ctx context.Context, objective string) *models.Transcript {
	started := time.Now()
	r := &loopRun{objective: objective, state: statePlanning}

	for r.state != stateTerminated {
		switch r.state {
		case statePlanning:
			l.plan(ctx, r)
		case stateExecuting:
			l.execute(ctx, r)
		}
	}
	debugLog("[runLoop] terminated after %d rounds: %s", r.history.Len(), r.cause)

	t := &models.Transcript{
		Objective:      objective,
		Exchanges:      r.history.Exchanges(),
		CompletionNote: r.note,
		Cause:          r.cause,
		StartedAt:      started,
	}
	if r.abort != nil {
		t.FailureReason = r.abort.Error()
		l.reporter.publish(ProgressEvent{
			Type:    EventRunFailed,
			Round:   r.abort.Round,
			Message: r.abort.Error(),
			Error:   r.abort,
		})
	}

	if r.cause == models.CauseCancelled {
		debugLog("[runLoop] skipping refinement: run cancelled")
	} else {
		artifact, err := l.refiner.Refine(ctx, objective, r.history.Results())
		if err != nil {
			t.RefinementError = err.Error()
		} else {
			t.FinalArtifact = artifact
			t.Refined = true
		}
	}

	t.FinishedAt = time.Now()
	l.reporter.publish(ProgressEvent{
		Type:    EventRunDone,
		Round:   r.history.Len(),
		Message: r.cause.Description(),
		Cause:   r.cause,
	})
	return t
}

func (l *RunLoop) plan(ctx context.Context, r *loopRun) {
	if ctx.Err() != nil {
		l.terminate(r, models.CauseCancelled)
		return
	}
	if r.history.Len() >= l.maxRounds {
		l.terminate(r, models.CauseMaxRounds)
		return
	}

	outcome := l.orchestrator.Plan(ctx, r.objective, r.history.Results())
	switch outcome.Kind {
	case PlanComplete:
		r.note = outcome.Note
		l.terminate(r, models.CauseCompletion)
	case PlanNextTask:
		r.instruction = outcome.Instruction
		r.state = stateExecuting
	default:
		l.fail(ctx, r, PhasePlanning, outcome.Err)
	}
}

func (l *RunLoop) execute(ctx context.Context, r *loopRun) {
	if ctx.Err() != nil {
		// The pending instruction is dropped; no partial exchange is recorded
		l.terminate(r, models.CauseCancelled)
		return
	}

	result, err := l.executor.Execute(ctx, r.instruction, r.history.Summaries())
	if err != nil {
		l.fail(ctx, r, PhaseExecuting, err)
		return
	}

	ex := r.history.Append(r.instruction, result)
	debugLog("[runLoop] recorded exchange %d", ex.Index)
	r.instruction = ""
	r.state = statePlanning
}

// fail terminates on a call error. A call that failed because the context
// was cancelled counts as cancellation.
func (l *RunLoop) fail(ctx context.Context, r *loopRun, phase string, err error) {
	if ctx.Err() != nil {
		l.terminate(r, models.CauseCancelled)
		return
	}
	r.abort = &RunAbortedError{Phase: phase, Round: r.history.Len() + 1, Err: err}
	l.terminate(r, models.CauseFailure)
}

func (l *RunLoop) terminate(r *loopRun, cause models.TerminationCause) {
	debugLog("[runLoop] %s -> terminated(%s)", r.state, cause)
	r.cause = cause
	r.state = stateTerminated
}
