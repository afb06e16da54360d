package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/internal/tui"
	"github.com/ShayCichocki/maestro/pkg/models"
)

type runResult struct {
	transcript *models.Transcript
	err        error
}

// runWithTUI runs the objective while the TUI shows progress. Quitting the
// TUI early cancels the run and waits for the partial transcript.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, runner *orchestrator.Runner, emitter *orchestrator.EventEmitter, objective string, maxRounds int) (*models.Transcript, error) {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	if maxRounds <= 0 {
		maxRounds = orchestrator.DefaultMaxRounds
	}
	program, app := tui.NewRunProgram(objective, maxRounds)

	go tui.Forward(program, emitter.Events())

	runDone := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				runDone <- runResult{err: fmt.Errorf("PANIC in run: %v", r)}
			}
			emitter.Close()
		}()
		t, err := runner.Run(ctx, objective, runAPIKey)
		program.Send(tui.DoneMsg{Transcript: t, Err: err})
		runDone <- runResult{transcript: t, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-runDone
		return nil, fmt.Errorf("run TUI: %w", err)
	}

	if app.Quitting() {
		cancel()
	}
	res := <-runDone
	return res.transcript, res.err
}
