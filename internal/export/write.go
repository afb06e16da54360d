package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Options controls WriteTranscript.
type Options struct {
	// HTML also writes an .html file next to the Markdown file.
	HTML bool
}

// WriteTranscript writes t into dir and returns the paths written.
// Files are replaced atomically so a reader never sees a partial export.
func WriteTranscript(dir string, t *models.Transcript, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	md, err := Markdown(t)
	if err != nil {
		return nil, err
	}
	mdPath := filepath.Join(dir, Filename(t.Objective, t.StartedAt))
	if err := writeFile(mdPath, md); err != nil {
		return nil, err
	}
	paths := []string{mdPath}

	if opts.HTML {
		page, err := RenderHTML(t)
		if err != nil {
			return paths, err
		}
		htmlPath := strings.TrimSuffix(mdPath, ".md") + ".html"
		if err := writeFile(htmlPath, page); err != nil {
			return paths, err
		}
		paths = append(paths, htmlPath)
	}

	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
