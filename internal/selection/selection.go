// Package selection admits scored candidates into a token budget.
package selection

import (
	"ctxpick/internal/config"
	"ctxpick/internal/scoring"
)

// Result is the ordered final selection with its cumulative token estimate.
type Result struct {
	Files           []scoring.ScoredFile `json:"files"`
	EstimatedTokens int                  `json:"estimatedTokens"`
}

// Paths returns the selected paths in selection order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

// Selector applies greedy budget-bounded selection with a minimum floor.
type Selector struct {
	floor int
}

// NewSelector creates a selector from the selection configuration.
func NewSelector(cfg config.SelectionConfig) *Selector {
	floor := cfg.FloorFiles
	if floor < 0 {
		floor = 0
	}
	return &Selector{floor: floor}
}

// Select iterates candidates in score order. Below the floor a candidate is
// admitted unconditionally — the floor guarantees a non-trivial context even
// under a tiny budget, so the cumulative total may exceed the budget there.
// Once the floor is met, selection halts entirely at the first candidate
// whose estimate would push the total past the budget; it does not skip
// ahead to smaller candidates.
func (s *Selector) Select(candidates []scoring.ScoredFile, budgetTokens int) Result {
	var result Result
	for _, c := range candidates {
		if len(result.Files) >= s.floor &&
			result.EstimatedTokens+c.EstimatedTokens > budgetTokens {
			break
		}
		result.Files = append(result.Files, c)
		result.EstimatedTokens += c.EstimatedTokens
	}
	return result
}
