package state

import (
	"io"
	"time"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// TranscriptStore handles transcript persistence operations.
type TranscriptStore interface {
	SaveTranscript(t *models.Transcript) error
	GetTranscript(id string) (*models.Transcript, error)
	ListRuns(limit int) ([]RunSummary, error)
	PurgeOldRuns(olderThan time.Duration) (int64, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store is the full archive backend.
type Store interface {
	io.Closer
	Migrator
	TranscriptStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store           = (*DB)(nil)
	_ Migrator        = (*DB)(nil)
	_ TranscriptStore = (*DB)(nil)
)
