// Package keywords turns a free-text question into the set of significant
// terms that drives candidate discovery and scoring.
package keywords

import (
	"regexp"
	"strings"

	"ctxpick/internal/config"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// Extractor derives keyword sets from question text.
type Extractor struct {
	minLength int
	stopwords map[string]struct{}
}

// NewExtractor creates an extractor from the keywords configuration.
func NewExtractor(cfg config.KeywordsConfig) *Extractor {
	stop := make(map[string]struct{}, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[w] = struct{}{}
	}
	minLen := cfg.MinLength
	if minLen < 1 {
		minLen = 3
	}
	return &Extractor{minLength: minLen, stopwords: stop}
}

// Extract lowercases the question, pulls out maximal alphanumeric/underscore
// runs of the configured minimum length, drops stopwords, and deduplicates
// preserving first-seen order. Order has no semantic effect downstream but
// keeps repeated runs reproducible.
func (e *Extractor) Extract(question string) []string {
	lowered := strings.ToLower(question)
	runs := tokenPattern.FindAllString(lowered, -1)

	var out []string
	seen := make(map[string]struct{}, len(runs))
	for _, tok := range runs {
		if len(tok) < e.minLength {
			continue
		}
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
