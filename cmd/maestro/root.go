package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Orchestrator and sub-agent objective runner",
	Long: `Maestro breaks an objective into sub-tasks with a planning model,
runs each sub-task with a cheaper executing model, and consolidates the
results into one final artifact with a refining model.

The loop stops when the orchestrator reports the objective complete,
when a model call fails, when the round cap is reached, or when you
cancel it (Ctrl+C, or 'maestro stop' from another terminal).

Configuration is read from ~/.config/maestro/config.yaml, a project
.maestro.yaml, and MAESTRO_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
