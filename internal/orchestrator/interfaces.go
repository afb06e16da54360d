package orchestrator

import (
	"context"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// ModelClient sends one role-specific request and returns the response text.
// *api.Client implements it.
type ModelClient interface {
	Invoke(ctx context.Context, req api.Request) (string, error)
}

// ClientFactory builds the client for a single run.
type ClientFactory func(cfg RunConfig) (ModelClient, error)

// CredentialStore reads and persists the API credential.
// Get returns "" with a nil error when nothing is stored.
type CredentialStore interface {
	Get() (string, error)
	Set(key string) error
}

// Archive stores finished transcripts.
type Archive interface {
	SaveTranscript(t *models.Transcript) error
}
