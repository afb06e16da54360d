// Package tui provides the terminal user interface for maestro's run command.
//
// The TUI is read-only. It shows the objective, the current round and phase,
// the most recent sub-task, and a scrollable activity log built from the
// orchestrator's progress events. Users can scroll the log with the arrow
// and page keys and quit with 'q' or Ctrl+C.
//
// Usage:
//
//	program, app := tui.NewRunProgram(objective, maxRounds)
//	go tui.Forward(program, emitter.Events())
//
//	go func() {
//	    transcript, err := runner.Run(ctx, objective, "")
//	    emitter.Close()
//	    program.Send(tui.DoneMsg{Transcript: transcript, Err: err})
//	}()
//
//	if _, err := program.Run(); err != nil {
//	    return err
//	}
//
// After the program exits, app.Quitting reports whether the user quit before
// the run finished.
package tui
