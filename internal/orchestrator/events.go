package orchestrator

import (
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// EventType represents the type of progress event.
type EventType string

const (
	// EventPlanStarted indicates a planning call is about to be made.
	EventPlanStarted EventType = "plan_started"
	// EventPlanCompleted indicates the orchestrator reported the objective complete.
	EventPlanCompleted EventType = "plan_completed"
	// EventTaskDispatched indicates a sub-task instruction was handed to the sub-agent.
	EventTaskDispatched EventType = "task_dispatched"
	// EventTaskCompleted indicates the sub-agent returned a result.
	EventTaskCompleted EventType = "task_completed"
	// EventRefineStarted indicates the refiner call is about to be made.
	EventRefineStarted EventType = "refine_started"
	// EventRefineCompleted indicates the refiner call returned.
	EventRefineCompleted EventType = "refine_completed"
	// EventFinalOutput carries the final artifact.
	EventFinalOutput EventType = "final_output"
	// EventRunFailed indicates a model call failure ended the loop.
	EventRunFailed EventType = "run_failed"
	// EventRunDone indicates the transcript is assembled.
	EventRunDone EventType = "run_done"
)

// sinkVisible reports whether events of this type are also sent to the
// ProgressSink. Run lifecycle events only go to event subscribers.
func (t EventType) sinkVisible() bool {
	switch t {
	case EventRunFailed, EventRunDone:
		return false
	default:
		return true
	}
}

// ProgressEvent represents one progress update.
// These events are used to update the TUI.
type ProgressEvent struct {
	// Type is the kind of event.
	Type EventType
	// Round is the 1-based round the event belongs to; 0 outside the loop.
	Round int
	// Message is the human-readable text also sent to the ProgressSink.
	Message string
	// Cause is set on EventRunDone.
	Cause models.TerminationCause
	// Error contains error details for EventRunFailed.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
