package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// EventMsg wraps one orchestrator progress event.
type EventMsg struct {
	Event orchestrator.ProgressEvent
}

// DoneMsg is sent when the run returns.
type DoneMsg struct {
	Transcript *models.Transcript
	Err        error
}

// Sender is the part of *tea.Program that Forward needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Forward relays events to the program until the channel is closed.
func Forward(s Sender, events <-chan orchestrator.ProgressEvent) {
	for ev := range events {
		s.Send(EventMsg{Event: ev})
	}
}
