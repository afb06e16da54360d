package export

import (
	"bytes"
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// FrontMatter is the YAML header written above an exported transcript.
type FrontMatter struct {
	ID              string                  `yaml:"id"`
	Objective       string                  `yaml:"objective"`
	Cause           models.TerminationCause `yaml:"cause"`
	Rounds          int                     `yaml:"rounds"`
	Refined         bool                    `yaml:"refined"`
	FailureReason   string                  `yaml:"failure_reason,omitempty"`
	RefinementError string                  `yaml:"refinement_error,omitempty"`
	StartedAt       time.Time               `yaml:"started_at"`
	FinishedAt      time.Time               `yaml:"finished_at"`
}

func frontMatterFor(t *models.Transcript) FrontMatter {
	return FrontMatter{
		ID:              t.ID,
		Objective:       t.Objective,
		Cause:           t.Cause,
		Rounds:          t.Rounds(),
		Refined:         t.Refined,
		FailureReason:   t.FailureReason,
		RefinementError: t.RefinementError,
		StartedAt:       t.StartedAt.UTC(),
		FinishedAt:      t.FinishedAt.UTC(),
	}
}

// Markdown renders t as a Markdown document with a YAML front matter block.
func Markdown(t *models.Transcript) ([]byte, error) {
	header, err := yaml.Marshal(frontMatterFor(t))
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(t.Render())
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
