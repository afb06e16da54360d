package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/config"
	"github.com/ShayCichocki/maestro/internal/export"
	"github.com/ShayCichocki/maestro/internal/state"
)

var (
	historyLimit     int
	historyOlderThan string
	historyMarkdown  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect archived runs",
	Long: `List, show, and purge runs archived in the local history database.

The database lives at ~/.local/share/maestro/history.db unless
history.db_path is set.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the transcript of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		t, err := db.GetTranscript(args[0])
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("no run with id %s", args[0])
		}

		if historyMarkdown {
			doc, err := export.Markdown(t)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(doc)
			return err
		}
		fmt.Println(t.Render())
		return nil
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than a given age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := parseAge(historyOlderThan)
		if err != nil {
			return err
		}

		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.PurgeOldRuns(age)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d run(s) from %s\n", n, db.Path())
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().BoolVar(&historyMarkdown, "markdown", false, "Print as Markdown with YAML front matter")
	historyPurgeCmd.Flags().StringVar(&historyOlderThan, "older-than", "30d", "Age cutoff, e.g. 72h or 30d")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

func openHistory() (*state.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return state.OpenMigrated(historyDBPath(cfg))
}

func printRuns(out io.Writer, runs []state.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}
	for _, r := range runs {
		refined := ""
		if r.Refined {
			refined = " refined"
		}
		fmt.Fprintf(out, "%s  %s  %-10s %2d rounds%s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Cause,
			r.Rounds,
			refined,
			truncateObjective(r.Objective, 60))
	}
}

// parseAge accepts time.ParseDuration syntax plus a whole-day "Nd" form.
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid age %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}

func truncateObjective(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
