package orchestrator

import "github.com/ShayCichocki/maestro/pkg/models"

// History is the append-only record of completed exchanges for one run.
// It is owned by a single RunLoop and is not safe for concurrent use.
type History struct {
	exchanges []models.Exchange
}

// Append records a completed round and returns it with its 1-based index.
func (h *History) Append(instruction, result string) models.Exchange {
	ex := models.Exchange{
		Index:       len(h.exchanges) + 1,
		Instruction: instruction,
		Result:      result,
	}
	h.exchanges = append(h.exchanges, ex)
	return ex
}

// Len returns the number of completed rounds.
func (h *History) Len() int {
	return len(h.exchanges)
}

// Results returns the sub-task results in production order.
func (h *History) Results() []string {
	results := make([]string, len(h.exchanges))
	for i, ex := range h.exchanges {
		results[i] = ex.Result
	}
	return results
}

// Summaries returns the "Task: ...\nResult: ..." context lines replayed to the sub-agent.
func (h *History) Summaries() []string {
	summaries := make([]string, len(h.exchanges))
	for i, ex := range h.exchanges {
		summaries[i] = ex.Summary()
	}
	return summaries
}

// Exchanges returns a copy of the recorded exchanges.
func (h *History) Exchanges() []models.Exchange {
	out := make([]models.Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}
