package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// RunSummary is one row of the history listing.
type RunSummary struct {
	ID         string                  `json:"id"`
	Objective  string                  `json:"objective"`
	Cause      models.TerminationCause `json:"cause"`
	Rounds     int                     `json:"rounds"`
	Refined    bool                    `json:"refined"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// SaveTranscript stores a finished run and its exchanges. Saving the same
// run ID again replaces the earlier record.
func (db *DB) SaveTranscript(t *models.Transcript) error {
	if t.ID == "" {
		return fmt.Errorf("save transcript: missing run id")
	}
	if !t.Cause.Valid() {
		return fmt.Errorf("save transcript %s: unknown termination cause %q", t.ID, t.Cause)
	}

	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM exchanges WHERE run_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear exchanges: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear run: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO runs (id, objective, cause, failure_reason, completion_note,
				final_artifact, refined, refinement_error, rounds, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Objective, string(t.Cause), t.FailureReason, t.CompletionNote,
			t.FinalArtifact, t.Refined, t.RefinementError, t.Rounds(),
			formatTime(t.StartedAt), formatTime(t.FinishedAt))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, ex := range t.Exchanges {
			_, err := tx.Exec(`
				INSERT INTO exchanges (run_id, idx, instruction, result)
				VALUES (?, ?, ?, ?)
			`, t.ID, ex.Index, ex.Instruction, ex.Result)
			if err != nil {
				return fmt.Errorf("insert exchange %d: %w", ex.Index, err)
			}
		}
		return nil
	})
}

// GetTranscript loads a run by ID. Returns nil, nil if not found.
func (db *DB) GetTranscript(id string) (*models.Transcript, error) {
	row := db.QueryRow(`
		SELECT id, objective, cause, failure_reason, completion_note, final_artifact,
			refined, refinement_error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	var t models.Transcript
	var cause, startedAt, finishedAt string
	err := row.Scan(&t.ID, &t.Objective, &cause, &t.FailureReason, &t.CompletionNote,
		&t.FinalArtifact, &t.Refined, &t.RefinementError, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	t.Cause = models.TerminationCause(cause)
	t.StartedAt, _ = parseTime(startedAt)
	t.FinishedAt, _ = parseTime(finishedAt)

	rows, err := db.Query(`
		SELECT idx, instruction, result FROM exchanges
		WHERE run_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex models.Exchange
		if err := rows.Scan(&ex.Index, &ex.Instruction, &ex.Result); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		t.Exchanges = append(t.Exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}

	return &t, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	query := `
		SELECT id, objective, cause, rounds, refined, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var cause, startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &r.Objective, &cause, &r.Rounds, &r.Refined, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Cause = models.TerminationCause(cause)
		r.StartedAt, _ = parseTime(startedAt)
		r.FinishedAt, _ = parseTime(finishedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// PurgeOldRuns deletes runs started before now minus olderThan.
// Returns the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM exchanges WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
		`, cutoff); err != nil {
			return fmt.Errorf("purge exchanges: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("purge old runs: %w", err)
		}
		count, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
