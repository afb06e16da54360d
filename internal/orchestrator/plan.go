package orchestrator

import (
	"strings"
	"unicode/utf8"

	"github.com/ShayCichocki/maestro/internal/api"
	"github.com/ShayCichocki/maestro/pkg/models"
)

// PlanKind tags the outcome of one planning call.
type PlanKind int

const (
	// PlanNextTask means the response is the next sub-task instruction.
	PlanNextTask PlanKind = iota
	// PlanComplete means the orchestrator reported the objective achieved.
	PlanComplete
	// PlanFailed means the call failed or produced nothing usable.
	PlanFailed
)

func (k PlanKind) String() string {
	switch k {
	case PlanNextTask:
		return "next_task"
	case PlanComplete:
		return "complete"
	case PlanFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlanOutcome is the result of Orchestrator.Plan.
type PlanOutcome struct {
	Kind PlanKind
	// Instruction is the raw response, set for PlanNextTask.
	Instruction string
	// Note is the text after the sentinel, set for PlanComplete.
	Note string
	// Err is set for PlanFailed.
	Err error
}

// leadingMarkup is stripped before looking for a prefix sentinel so that
// "**The task is complete:**" and "# The task is complete:" still count.
const leadingMarkup = " \t\r\n*_#>`"

// ParsePlan classifies a raw planning response. It is the only place that
// inspects planning text.
func ParsePlan(raw string, s Sentinel) PlanOutcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PlanOutcome{
			Kind: PlanFailed,
			Err:  &api.ModelError{Role: models.RolePlanning, Kind: api.KindMalformed, Err: api.ErrEmptyResponse},
		}
	}

	phrase := strings.TrimSpace(s.Phrase)
	if phrase == "" {
		phrase = DefaultSentinelPhrase
	}

	lead := strings.TrimLeft(trimmed, leadingMarkup)
	if hasPrefixFold(lead, phrase) {
		return PlanOutcome{Kind: PlanComplete, Note: cleanNote(lead[len(phrase):])}
	}

	if s.Match == MatchAnywhere {
		if i := indexFold(trimmed, phrase); i >= 0 {
			note := trimmed[:i] + trimmed[i+len(phrase):]
			return PlanOutcome{Kind: PlanComplete, Note: cleanNote(note)}
		}
	}

	return PlanOutcome{Kind: PlanNextTask, Instruction: raw}
}

// cleanNote drops markup left behind by the sentinel and surrounding whitespace.
func cleanNote(s string) string {
	return strings.TrimSpace(strings.TrimLeft(s, leadingMarkup))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is a case-insensitive strings.Index over rune boundaries.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
