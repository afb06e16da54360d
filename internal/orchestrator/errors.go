package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyObjective is returned when the objective is blank.
	ErrEmptyObjective = errors.New("objective must not be empty")
	// ErrNoCredential is returned when no API credential can be resolved.
	ErrNoCredential = errors.New("no API credential available")
)

// Phases a run can abort in.
const (
	PhasePlanning  = "planning"
	PhaseExecuting = "executing"
)

// RunAbortedError records the call failure that ended the loop early.
// It ends up on the transcript as the failure reason; it is never returned
// from Runner.Run.
type RunAbortedError struct {
	Phase string
	Round int
	Err   error
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("%s failed in round %d: %v", e.Phase, e.Round, e.Err)
}

func (e *RunAbortedError) Unwrap() error {
	return e.Err
}
