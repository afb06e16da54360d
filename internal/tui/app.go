package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// maxLogEntries bounds the activity log; older entries are discarded.
const maxLogEntries = 500

// LogEntry is one line of the activity log.
type LogEntry struct {
	Timestamp time.Time
	Type      orchestrator.EventType
	Message   string
}

// App is the bubbletea model for the run TUI.
type App struct {
	status   *StatusView
	spinner  spinner.Model
	log      viewport.Model
	entries  []LogEntry
	width    int
	height   int
	done     bool
	quitting bool

	transcript *models.Transcript
	err        error

	logTimeStyle lipgloss.Style
	logTypeStyle lipgloss.Style
	logStyle     lipgloss.Style
	errorStyle   lipgloss.Style
	doneStyle    lipgloss.Style
	hintStyle    lipgloss.Style
}

// NewApp creates an App for one objective.
func NewApp(objective string, maxRounds int) *App {
	status := NewStatusView()
	state := status.State()
	state.Objective = objective
	state.MaxRounds = maxRounds
	status.SetState(state)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &App{
		status:  status,
		spinner: sp,
		log:     viewport.New(80, 12),
		entries: make([]LogEntry, 0),

		logTimeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		logTypeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Width(17),

		logStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		doneStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// NewRunProgram creates a Bubbletea program for the run TUI.
func NewRunProgram(objective string, maxRounds int) (*tea.Program, *App) {
	app := NewApp(objective, maxRounds)
	p := tea.NewProgram(app, tea.WithAltScreen())
	return p, app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = !a.done
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.log, cmd = a.log.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.status.SetWidth(msg.Width)
		a.resize()

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case EventMsg:
		state := a.status.State()
		state.Apply(msg.Event)
		a.status.SetState(state)
		a.appendLog(msg.Event)

	case DoneMsg:
		a.done = true
		a.transcript = msg.Transcript
		a.err = msg.Err
		if msg.Transcript != nil {
			state := a.status.State()
			state.finish(msg.Transcript.Cause)
			if state.Failure == "" {
				state.Failure = msg.Transcript.FailureReason
			}
			a.status.SetState(state)
		}
		// Don't quit immediately - let user see final state
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Run cancelled.\n"
	}

	var b strings.Builder
	b.WriteString(a.status.View())
	b.WriteString("\n\n")
	b.WriteString(a.log.View())
	b.WriteString("\n")
	b.WriteString(a.footer())
	b.WriteString("\n")
	return b.String()
}

// Done reports whether the run has returned.
func (a *App) Done() bool {
	return a.done
}

// Quitting reports whether the user quit before the run returned.
func (a *App) Quitting() bool {
	return a.quitting
}

// Transcript returns the transcript delivered by DoneMsg, if any.
func (a *App) Transcript() *models.Transcript {
	return a.transcript
}

// Entries returns a copy of the activity log.
func (a *App) Entries() []LogEntry {
	out := make([]LogEntry, len(a.entries))
	copy(out, a.entries)
	return out
}

func (a *App) footer() string {
	switch {
	case a.done && a.err != nil:
		return a.errorStyle.Render(fmt.Sprintf("Error: %v", a.err))
	case a.done:
		return a.doneStyle.Render("Run finished! Press q to exit and print the transcript.")
	default:
		return a.spinner.View() + " " + a.hintStyle.Render("working... ↑/↓ scroll, q to cancel")
	}
}

func (a *App) appendLog(ev orchestrator.ProgressEvent) {
	msg := ev.Message
	if msg == "" && ev.Error != nil {
		msg = ev.Error.Error()
	}
	if msg == "" && ev.Type == orchestrator.EventRunDone {
		msg = "Run finished: " + ev.Cause.Description()
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	a.entries = append(a.entries, LogEntry{Timestamp: ts, Type: ev.Type, Message: msg})
	if len(a.entries) > maxLogEntries {
		a.entries = a.entries[len(a.entries)-maxLogEntries:]
	}

	follow := a.log.AtBottom()
	a.log.SetContent(a.renderLog())
	if follow {
		a.log.GotoBottom()
	}
}

// renderLog renders every entry, one line per entry.
func (a *App) renderLog() string {
	width := a.log.Width - 28
	lines := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			a.logTimeStyle.Render(e.Timestamp.Format("15:04:05")),
			a.logTypeStyle.Render(string(e.Type)),
			a.logStyle.Render(truncate(strings.Join(strings.Fields(e.Message), " "), width))))
	}
	return strings.Join(lines, "\n")
}

// resize gives the log viewport whatever the status panel and footer leave.
func (a *App) resize() {
	h := a.height - a.status.Height() - 4
	if h < 3 {
		h = 3
	}
	a.log.Width = a.width
	a.log.Height = h
	a.log.SetContent(a.renderLog())
	a.log.GotoBottom()
}
