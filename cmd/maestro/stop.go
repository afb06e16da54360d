package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/signals"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask a running maestro in this directory to stop",
	Long: `Write the stop signal file for the current directory.

A 'maestro run' started from the same directory cancels at its next
model call. Refinement is skipped and the partial transcript is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		if err := signals.RequestStop(signals.DefaultDir(cwd)); err != nil {
			return err
		}
		fmt.Println("Stop requested.")
		return nil
	},
}
