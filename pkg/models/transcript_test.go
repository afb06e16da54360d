package models

import (
	"strings"
	"testing"
	"time"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		ID:        "run-1",
		Objective: "Write a hello-world function in three languages",
		Exchanges: []Exchange{
			{Index: 1, Instruction: "Write it in Python", Result: "def hello(): print('hi')"},
		},
		CompletionNote: "done",
		FinalArtifact:  "Consolidated hello world",
		Refined:        true,
		Cause:          CauseCompletion,
		StartedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt:     time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC),
	}
}

func TestTranscript_RenderLayout(t *testing.T) {
	out := sampleTranscript().Render()

	bar := strings.Repeat("=", 40)
	wantParts := []string{
		"Objective: Write a hello-world function in three languages\n\n",
		bar + " Task Breakdown " + bar + "\n\n",
		"Task 1:\nPrompt: Write it in Python\nResult: def hello(): print('hi')\n\n",
		"Orchestrator completion note: done\n\n",
		bar + " Refined Final Output " + bar + "\n\n",
	}
	last := -1
	for _, part := range wantParts {
		idx := strings.Index(out, part)
		if idx < 0 {
			t.Fatalf("rendered transcript missing %q\n%s", part, out)
		}
		if idx < last {
			t.Errorf("part %q out of order", part)
		}
		last = idx
	}

	if !strings.HasSuffix(out, "Consolidated hello world") {
		t.Errorf("refined output should close the transcript, got:\n%s", out)
	}
	if strings.Count(out, "Task ") != 2 { // "Task 1:" and "Task Breakdown"
		t.Errorf("expected exactly one exchange block, got:\n%s", out)
	}
	if strings.Contains(out, "Run stopped") {
		t.Error("completed run should not render a stop line")
	}
}

func TestTranscript_RenderIsDeterministic(t *testing.T) {
	tr := sampleTranscript()
	first := tr.Render()

	tr.StartedAt = time.Now()
	tr.FinishedAt = time.Now()
	tr.ID = "another-id"
	second := tr.Render()

	if first != second {
		t.Errorf("rendering the same exchanges twice differed:\n%s\n---\n%s", first, second)
	}
}

func TestTranscript_RenderRefinementFailed(t *testing.T) {
	tr := sampleTranscript()
	tr.Refined = false
	tr.FinalArtifact = ""
	tr.RefinementError = "rate limited"

	out := tr.Render()
	if !strings.HasSuffix(out, "Refinement failed: rate limited") {
		t.Errorf("expected refinement failure marker, got:\n%s", out)
	}
	if !strings.Contains(out, "Result: def hello(): print('hi')") {
		t.Error("exchanges must survive a refinement failure")
	}
}

func TestTranscript_RenderCancelled(t *testing.T) {
	tr := sampleTranscript()
	tr.Refined = false
	tr.FinalArtifact = ""
	tr.CompletionNote = ""
	tr.Cause = CauseCancelled

	out := tr.Render()
	if !strings.Contains(out, "Run stopped: run cancelled") {
		t.Errorf("expected stop line, got:\n%s", out)
	}
	if !strings.HasSuffix(out, RefinementSkippedMarker) {
		t.Errorf("expected skipped marker, got:\n%s", out)
	}
}

func TestTranscript_RenderFailureReason(t *testing.T) {
	tr := &Transcript{
		Objective:       "x",
		Cause:           CauseFailure,
		FailureReason:   "planning round 1: boom",
		RefinementError: "boom again",
	}

	out := tr.Render()
	if !strings.Contains(out, "Run stopped: a model call failed (planning round 1: boom)") {
		t.Errorf("missing failure line:\n%s", out)
	}
	if strings.Contains(out, "Task 1:") {
		t.Error("no exchanges expected")
	}
}

func TestTranscript_Results(t *testing.T) {
	tr := &Transcript{Exchanges: []Exchange{
		{Index: 1, Instruction: "a", Result: "ra"},
		{Index: 2, Instruction: "b", Result: "rb"},
	}}

	got := tr.Results()
	if len(got) != 2 || got[0] != "ra" || got[1] != "rb" {
		t.Errorf("Results() = %v, want [ra rb]", got)
	}
	if tr.Rounds() != 2 {
		t.Errorf("Rounds() = %d, want 2", tr.Rounds())
	}
}

func TestExchange_Summary(t *testing.T) {
	ex := Exchange{Index: 1, Instruction: "do it", Result: "done"}
	if got := ex.Summary(); got != "Task: do it\nResult: done" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestTerminationCause_Valid(t *testing.T) {
	tests := []struct {
		cause TerminationCause
		want  bool
	}{
		{CauseCompletion, true},
		{CauseFailure, true},
		{CauseMaxRounds, true},
		{CauseCancelled, true},
		{TerminationCause(""), false},
		{TerminationCause("timeout"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.cause), func(t *testing.T) {
			if got := tt.cause.Valid(); got != tt.want {
				t.Errorf("TerminationCause(%q).Valid() = %v, want %v", tt.cause, got, tt.want)
			}
		})
	}
}
