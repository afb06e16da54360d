package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/internal/config"
	"github.com/ShayCichocki/maestro/internal/export"
	"github.com/ShayCichocki/maestro/internal/orchestrator"
	"github.com/ShayCichocki/maestro/internal/signals"
	"github.com/ShayCichocki/maestro/internal/state"
	"github.com/ShayCichocki/maestro/pkg/models"
)

var (
	runAPIKey        string
	runMaxRounds     int
	runSentinelMatch string
	runTUI           bool
	runExportDir     string
	runHTML          bool
	runNoHistory     bool
)

var runCmd = &cobra.Command{
	Use:   "run <objective...>",
	Short: "Run an objective through the orchestrator",
	Long: `Run an objective through the orchestrator loop.

Each round the orchestrator (planning model) either hands the sub-agent
(executing model) the next task or reports the objective complete. When
the loop stops, the refiner consolidates every sub-task result into the
final output.

The API key is taken from --api-key (and saved for later runs), then
from the credential store, then from ANTHROPIC_API_KEY.

Examples:
  maestro run "Write a short essay on tide pools"
  maestro run --max-rounds 5 --export ./out --html Plan a 3-day trip to Kyoto`,
	Args: cobra.MinimumNArgs(1),
	RunE: runObjective,
}

func init() {
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Anthropic API key (persisted for later runs)")
	runCmd.Flags().IntVar(&runMaxRounds, "max-rounds", 0, "Maximum planning/execution rounds (default from config)")
	runCmd.Flags().StringVar(&runSentinelMatch, "sentinel-match", "", "Completion marker matching: prefix or anywhere")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show progress in a terminal UI")
	runCmd.Flags().StringVar(&runExportDir, "export", "", "Write the transcript as Markdown into this directory")
	runCmd.Flags().BoolVar(&runHTML, "html", false, "Also write an HTML rendering when exporting")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not archive the transcript in the history database")
}

func runObjective(cmd *cobra.Command, args []string) (retErr error) {
	// Recover from panics and report them
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runObjective: %v", r)
		}
	}()

	objective := strings.TrimSpace(strings.Join(args, " "))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	store, err := config.NewCredentialStore(cfg)
	if err != nil {
		return err
	}

	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}

	if cfg.Logging.Debug {
		logger, err := orchestrator.NewDebugLogger(cfg.DebugLogPath())
		if err != nil {
			log.Printf("[run] WARNING: debug log disabled: %v", err)
		} else {
			defer logger.Close()
			opts = append(opts, orchestrator.WithLogger(logger))
		}
	}

	if cfg.History.Enabled && !runNoHistory {
		db, err := state.OpenMigrated(historyDBPath(cfg))
		if err != nil {
			log.Printf("[run] WARNING: history disabled: %v", err)
		} else {
			defer db.Close()
			opts = append(opts, orchestrator.WithArchive(db))
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := ctx.Done()
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt, stopping after the current call...")
			cancel()
		case <-done:
		}
	}()

	var stopped <-chan struct{}
	if cwd, err := os.Getwd(); err == nil {
		if sw, err := signals.NewStopWatcher(signals.DefaultDir(cwd)); err != nil {
			log.Printf("[run] WARNING: stop signal disabled: %v", err)
		} else {
			defer sw.Close()
			stopped = sw.Stopped()
			var stopCancel context.CancelFunc
			ctx, stopCancel = sw.WithStop(ctx, time.Second)
			defer stopCancel()
		}
	}

	usage := api.NewUsageTracker()
	var transcript *models.Transcript
	if runTUI {
		emitter := orchestrator.NewEventEmitter(100)
		opts = append(opts, orchestrator.WithEventEmitter(emitter))
		runner, err := orchestrator.NewRunner(orchestrator.RequiredConfig{
			Credentials: store,
			NewClient:   newClientFactory(cfg, usage),
		}, opts...)
		if err != nil {
			return err
		}
		transcript, err = runWithTUI(ctx, cancel, runner, emitter, objective, cfg.Loop.MaxRounds)
		if err != nil {
			return explainRunError(err)
		}
		if n := emitter.DroppedCount(); n > 0 {
			log.Printf("[run] WARNING: TUI missed %d progress events", n)
		}
		fmt.Println(transcript.Render())
	} else {
		opts = append(opts, orchestrator.WithProgressSink(newConsoleSink(os.Stdout)))
		runner, err := orchestrator.NewRunner(orchestrator.RequiredConfig{
			Credentials: store,
			NewClient:   newClientFactory(cfg, usage),
		}, opts...)
		if err != nil {
			return err
		}
		transcript, err = runner.Run(ctx, objective, runAPIKey)
		if err != nil {
			return explainRunError(err)
		}
	}

	if stopRequested(stopped) {
		fmt.Println("Stopped by 'maestro stop'.")
	}
	printSummary(os.Stdout, transcript, usage)

	if dir := exportDir(cfg); dir != "" {
		paths, err := export.WriteTranscript(dir, transcript, export.Options{HTML: runHTML || cfg.Export.HTML})
		if err != nil {
			return fmt.Errorf("export transcript: %w", err)
		}
		for _, p := range paths {
			fmt.Printf("Saved %s\n", p)
		}
	}

	if transcript.Cause == models.CauseFailure {
		return fmt.Errorf("run failed: %s", transcript.FailureReason)
	}
	return nil
}

// applyRunFlags layers command-line overrides onto the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("max-rounds") {
		cfg.Loop.MaxRounds = runMaxRounds
	}
	if cmd.Flags().Changed("sentinel-match") {
		if _, err := orchestrator.ParseSentinelMatch(runSentinelMatch); err != nil {
			return err
		}
		cfg.Loop.SentinelMatch = runSentinelMatch
	}
	return nil
}

// stopRequested reports whether the stop watcher saw a stop file. A nil
// channel means no watcher was running.
func stopRequested(stopped <-chan struct{}) bool {
	if stopped == nil {
		return false
	}
	select {
	case <-stopped:
		return true
	default:
		return false
	}
}

func exportDir(cfg *config.Config) string {
	if runExportDir != "" {
		return runExportDir
	}
	return cfg.Export.Dir
}

// explainRunError adds a hint to errors the user can fix.
func explainRunError(err error) error {
	if errors.Is(err, orchestrator.ErrNoCredential) {
		return fmt.Errorf("%w\n\nSet one with --api-key, 'maestro config anthropic.api_key <key>', or %s", err, config.EnvAPIKey)
	}
	return err
}
