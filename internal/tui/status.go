package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// Phase names shown in the status panel.
const (
	PhaseStarting  = "starting"
	PhasePlanning  = "planning"
	PhaseExecuting = "executing"
	PhaseRefining  = "refining"
	PhaseDone      = "done"
	PhaseFailed    = "failed"
)

// RunState tracks what the status panel displays.
type RunState struct {
	Objective string
	Round     int
	MaxRounds int
	Phase     string
	// CurrentTask is the first line of the last dispatched instruction.
	CurrentTask string
	Cause       models.TerminationCause
	Failure     string
}

// Apply folds one progress event into the state.
func (s *RunState) Apply(ev orchestrator.ProgressEvent) {
	if ev.Round > s.Round {
		s.Round = ev.Round
	}
	switch ev.Type {
	case orchestrator.EventPlanStarted, orchestrator.EventTaskCompleted:
		s.Phase = PhasePlanning
	case orchestrator.EventTaskDispatched:
		s.Phase = PhaseExecuting
		s.CurrentTask = firstLine(taskText(ev.Message))
	case orchestrator.EventPlanCompleted, orchestrator.EventRefineStarted:
		s.Phase = PhaseRefining
	case orchestrator.EventRunFailed:
		s.Phase = PhaseFailed
		if ev.Error != nil {
			s.Failure = ev.Error.Error()
		}
	case orchestrator.EventRunDone:
		s.finish(ev.Cause)
	}
}

// finish records the termination cause. A failed run keeps the failed phase
// even though refinement ran after the failure.
func (s *RunState) finish(cause models.TerminationCause) {
	s.Cause = cause
	if cause == models.CauseFailure {
		s.Phase = PhaseFailed
	} else {
		s.Phase = PhaseDone
	}
}

// StatusView renders the run status panel.
type StatusView struct {
	state RunState
	width int

	titleStyle   lipgloss.Style
	labelStyle   lipgloss.Style
	valueStyle   lipgloss.Style
	phaseStyle   lipgloss.Style
	failedStyle  lipgloss.Style
	doneStyle    lipgloss.Style
	progressFull lipgloss.Style
	progressRest lipgloss.Style
}

// NewStatusView creates a StatusView.
func NewStatusView() *StatusView {
	return &StatusView{
		state: RunState{Phase: PhaseStarting},
		width: 80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238")),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		phaseStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		progressFull: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		progressRest: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// State returns the current state.
func (v *StatusView) State() RunState {
	return v.state
}

// SetState replaces the current state.
func (v *StatusView) SetState(s RunState) {
	v.state = s
}

// SetWidth sets the panel width.
func (v *StatusView) SetWidth(width int) {
	v.width = width
}

// Height returns the number of lines View renders.
func (v *StatusView) Height() int {
	return lipgloss.Height(v.View())
}

// View renders the status panel.
func (v *StatusView) View() string {
	var b strings.Builder

	b.WriteString(v.titleStyle.Render("maestro"))
	b.WriteString("\n")

	b.WriteString(v.labelStyle.Render("Objective:"))
	b.WriteString(v.valueStyle.Render(truncate(firstLine(v.state.Objective), v.width-14)))
	b.WriteString("\n")

	b.WriteString(v.labelStyle.Render("Round:"))
	b.WriteString(v.valueStyle.Render(fmt.Sprintf("%d/%d", v.state.Round, v.state.MaxRounds)))
	b.WriteString("  ")
	b.WriteString(v.renderProgressBar(20))
	b.WriteString("\n")

	b.WriteString(v.labelStyle.Render("Phase:"))
	b.WriteString(v.renderPhase())
	b.WriteString("\n")

	task := v.state.CurrentTask
	if task == "" {
		task = "-"
	}
	b.WriteString(v.labelStyle.Render("Task:"))
	b.WriteString(truncate(task, v.width-14))

	if v.state.Failure != "" {
		b.WriteString("\n")
		b.WriteString(v.labelStyle.Render("Error:"))
		b.WriteString(v.failedStyle.Render(truncate(v.state.Failure, v.width-14)))
	}

	return b.String()
}

func (v *StatusView) renderPhase() string {
	switch v.state.Phase {
	case PhaseFailed:
		return v.failedStyle.Render(v.state.Phase)
	case PhaseDone:
		label := v.state.Phase
		if v.state.Cause != "" {
			label += " (" + v.state.Cause.Description() + ")"
		}
		return v.doneStyle.Render(label)
	default:
		return v.phaseStyle.Render(v.state.Phase)
	}
}

// renderProgressBar shows rounds used against the round cap.
func (v *StatusView) renderProgressBar(width int) string {
	if v.state.MaxRounds <= 0 {
		return ""
	}
	filled := v.state.Round * width / v.state.MaxRounds
	if filled > width {
		filled = width
	}
	return v.progressFull.Render(strings.Repeat("█", filled)) +
		v.progressRest.Render(strings.Repeat("░", width-filled))
}

// taskText strips the dispatch prefix from a task_dispatched message.
func taskText(message string) string {
	if i := strings.Index(message, "👇"); i >= 0 {
		return strings.TrimSpace(message[i+len("👇"):])
	}
	return message
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// truncate shortens s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
