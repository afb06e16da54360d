package models

import "fmt"

// Exchange is one completed round: the orchestrator's instruction and the
// sub-agent's result for it.
type Exchange struct {
	// Index is the 1-based position of the exchange within its run.
	Index int `json:"index"`
	// Instruction is the sub-task prompt produced by the orchestrator.
	Instruction string `json:"instruction"`
	// Result is the sub-agent's response to Instruction.
	Result string `json:"result"`
}

// Summary renders the exchange the way it is replayed to later sub-agent calls.
func (e Exchange) Summary() string {
	return fmt.Sprintf("Task: %s\nResult: %s", e.Instruction, e.Result)
}

// TerminationCause records why a run stopped iterating.
type TerminationCause string

const (
	// CauseCompletion means the orchestrator signalled the objective is met.
	CauseCompletion TerminationCause = "completion"
	// CauseFailure means a planning or execution call failed.
	CauseFailure TerminationCause = "failure"
	// CauseMaxRounds means the round cap was reached.
	CauseMaxRounds TerminationCause = "max_rounds"
	// CauseCancelled means the caller cancelled the run.
	CauseCancelled TerminationCause = "cancelled"
)

// Valid returns true if the cause is a known value.
func (c TerminationCause) Valid() bool {
	switch c {
	case CauseCompletion, CauseFailure, CauseMaxRounds, CauseCancelled:
		return true
	default:
		return false
	}
}

// Description returns a short human-readable explanation of the cause.
func (c TerminationCause) Description() string {
	switch c {
	case CauseCompletion:
		return "objective reported complete by the orchestrator"
	case CauseFailure:
		return "a model call failed"
	case CauseMaxRounds:
		return "maximum number of rounds reached"
	case CauseCancelled:
		return "run cancelled"
	default:
		return "unknown"
	}
}
