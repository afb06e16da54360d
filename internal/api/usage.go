package api

import (
	"sync"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// RoleUsage is the token spend of one role.
type RoleUsage struct {
	InputTokens  int64
	OutputTokens int64
	Calls        int
}

// UsageTracker accumulates token usage per model role. It is safe for
// concurrent use.
type UsageTracker struct {
	mu     sync.Mutex
	byRole map[models.Role]RoleUsage
}

// NewUsageTracker creates an empty tracker.
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{byRole: make(map[models.Role]RoleUsage)}
}

// Add records one successful call.
func (t *UsageTracker) Add(role models.Role, input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u := t.byRole[role]
	u.InputTokens += input
	u.OutputTokens += output
	u.Calls++
	t.byRole[role] = u
}

// ForRole returns the usage recorded for role.
func (t *UsageTracker) ForRole(role models.Role) RoleUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byRole[role]
}

// Total sums every role.
func (t *UsageTracker) Total() RoleUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total RoleUsage
	for _, u := range t.byRole {
		total.InputTokens += u.InputTokens
		total.OutputTokens += u.OutputTokens
		total.Calls += u.Calls
	}
	return total
}
