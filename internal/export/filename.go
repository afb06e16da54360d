// Package export writes finished transcripts to disk as Markdown, with an
// optional HTML rendering.
package export

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

// maxObjectiveUnits caps the objective part of an export filename, counted
// in UTF-16 code units so names match those produced by the browser build.
const maxObjectiveUnits = 50

// Filename returns the export file name for a run started at now:
// "2006-01-02_H-M_<objective>.md", with every character outside [A-Za-z0-9]
// replaced by '_'. A blank objective gives "..._output.md".
func Filename(objective string, now time.Time) string {
	stamp := fmt.Sprintf("%s_%d-%d", now.Format("2006-01-02"), now.Hour(), now.Minute())

	name := sanitize(strings.TrimSpace(objective))
	if name == "" {
		name = "output"
	}
	return stamp + "_" + name + ".md"
}

// sanitize replaces each UTF-16 code unit outside [A-Za-z0-9] with '_'.
// A rune outside the BMP is a surrogate pair and becomes "__".
func sanitize(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if n == maxObjectiveUnits {
				return b.String()
			}
			b.WriteRune(r)
			n++
		default:
			units := utf16.RuneLen(r)
			if units < 1 {
				units = 1
			}
			for ; units > 0; units-- {
				if n == maxObjectiveUnits {
					return b.String()
				}
				b.WriteByte('_')
				n++
			}
		}
	}
	return b.String()
}
