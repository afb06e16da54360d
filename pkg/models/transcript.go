package models

import (
	"fmt"
	"strings"
	"time"
)

// Banner titles used when rendering a transcript.
const (
	BreakdownTitle = "Task Breakdown"
	FinalTitle     = "Refined Final Output"
)

// RefinementSkippedMarker replaces the final artifact when a cancelled run
// never reached the refiner.
const RefinementSkippedMarker = "Refinement skipped: run cancelled"

// Transcript is the full record of one run: the objective, every exchange in
// the order it was produced, and the final artifact.
type Transcript struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`
	// Objective is the goal supplied by the caller.
	Objective string `json:"objective"`
	// Exchanges holds every completed round in production order.
	Exchanges []Exchange `json:"exchanges"`
	// CompletionNote is the orchestrator's text after the completion sentinel, if any.
	CompletionNote string `json:"completion_note,omitempty"`
	// FinalArtifact is the refiner's consolidated output.
	FinalArtifact string `json:"final_artifact,omitempty"`
	// Refined is true when FinalArtifact came from a successful refiner call.
	Refined bool `json:"refined"`
	// RefinementError describes why refinement did not produce an artifact.
	RefinementError string `json:"refinement_error,omitempty"`
	// Cause is why the loop terminated.
	Cause TerminationCause `json:"cause"`
	// FailureReason describes the failure that aborted the loop, if any.
	FailureReason string `json:"failure_reason,omitempty"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the transcript was assembled.
	FinishedAt time.Time `json:"finished_at"`
}

// Results returns the sub-task results in exchange order.
func (t *Transcript) Results() []string {
	results := make([]string, len(t.Exchanges))
	for i, ex := range t.Exchanges {
		results[i] = ex.Result
	}
	return results
}

// Rounds returns the number of completed exchanges.
func (t *Transcript) Rounds() int {
	return len(t.Exchanges)
}

// Render formats the transcript as plain text. Rendering is deterministic:
// timestamps and IDs are not part of the output.
func (t *Transcript) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Objective: %s\n\n", t.Objective)
	b.WriteString(banner(BreakdownTitle))
	b.WriteString("\n\n")

	for _, ex := range t.Exchanges {
		fmt.Fprintf(&b, "Task %d:\n", ex.Index)
		fmt.Fprintf(&b, "Prompt: %s\n", ex.Instruction)
		fmt.Fprintf(&b, "Result: %s\n\n", ex.Result)
	}

	if t.CompletionNote != "" {
		fmt.Fprintf(&b, "Orchestrator completion note: %s\n\n", t.CompletionNote)
	}

	if t.Cause != "" && t.Cause != CauseCompletion {
		fmt.Fprintf(&b, "Run stopped: %s", t.Cause.Description())
		if t.FailureReason != "" {
			fmt.Fprintf(&b, " (%s)", t.FailureReason)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(banner(FinalTitle))
	b.WriteString("\n\n")
	b.WriteString(t.closingSection())

	return b.String()
}

func (t *Transcript) closingSection() string {
	if t.Refined {
		return t.FinalArtifact
	}
	if t.Cause == CauseCancelled && t.RefinementError == "" {
		return RefinementSkippedMarker
	}
	reason := t.RefinementError
	if reason == "" {
		reason = "no output"
	}
	return "Refinement failed: " + reason
}

func banner(title string) string {
	bar := strings.Repeat("=", 40)
	return bar + " " + title + " " + bar
}
