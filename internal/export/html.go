package export

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ShayCichocki/maestro/pkg/models"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
pre { background: #f5f5f5; padding: 0.75rem; overflow-x: auto; }
</style>
</head>
<body>
`

const htmlTail = `</body>
</html>
`

// RenderHTML renders the transcript body as a standalone HTML page.
// Raw HTML inside model output is escaped, not passed through.
func RenderHTML(t *models.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, htmlHead, stdhtml.EscapeString(t.Objective))
	if err := mdRenderer.Convert([]byte(t.Render()), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	buf.WriteString(htmlTail)
	return buf.Bytes(), nil
}
