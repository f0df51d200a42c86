// Package scoring computes composite relevance scores and token-cost
// estimates for candidate files.
//
// Five signals combine additively/subtractively into one score. Each signal
// is a pure function of (path, content, timestamp, size) with no cross-term
// interaction, so weights can be tuned independently and every signal is
// unit-testable in isolation.
package scoring

import (
	"context"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ctxpick/internal/config"
	"ctxpick/internal/gitsource"
	"ctxpick/internal/logging"
)

const secondsPerDay = 86400.0

// ScoredFile is a candidate path with its composite score and token estimate.
type ScoredFile struct {
	Path            string  `json:"path"`
	Score           float64 `json:"score"`
	SizeBytes       int64   `json:"sizeBytes"`
	EstimatedTokens int     `json:"estimatedTokens"`
}

// Scorer computes scores against a fixed weight configuration.
type Scorer struct {
	weights       config.Weights
	tokensPerChar float64
	bonusExts     map[string]struct{}
	source        gitsource.Source
	logger        *logging.Logger

	// now is injectable for deterministic recency tests.
	now func() time.Time
}

// NewScorer creates a scorer from the scoring configuration.
func NewScorer(cfg config.ScoringConfig, source gitsource.Source, logger *logging.Logger) *Scorer {
	exts := make(map[string]struct{}, len(cfg.BonusExtensions))
	for _, e := range cfg.BonusExtensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	tpc := cfg.TokensPerChar
	if tpc <= 0 {
		tpc = 3.7
	}
	return &Scorer{
		weights:       cfg.Weights,
		tokensPerChar: tpc,
		bonusExts:     exts,
		source:        source,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock overrides the scorer's notion of "now". Test hook.
func (s *Scorer) SetClock(now func() time.Time) {
	s.now = now
}

// Score computes the composite score and token estimate for one candidate.
func (s *Scorer) Score(ctx context.Context, path string, kws []string) ScoredFile {
	size := s.source.FileSize(path)
	content := s.source.FileContent(path)
	modified := s.source.LastModified(ctx, path)

	w := s.weights
	composite := w.Filename*FilenameScore(path, kws) +
		w.Content*ContentScore(content, kws) +
		w.Recency*RecencyScore(modified, s.now()) -
		w.SizePenalty*SizePenalty(size) +
		s.typeBonus(path)

	return ScoredFile{
		Path:            path,
		Score:           composite,
		SizeBytes:       size,
		EstimatedTokens: EstimateTokens(size, s.tokensPerChar),
	}
}

// ScoreMany scores every candidate and returns them sorted by descending
// composite score. The sort is stable: ties keep the input order, so
// repeated runs on unchanged input are deterministic.
func (s *Scorer) ScoreMany(ctx context.Context, paths []string, kws []string) []ScoredFile {
	scored := make([]ScoredFile, len(paths))
	for i, p := range paths {
		scored[i] = s.Score(ctx, p, kws)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// FilenameScore counts keywords appearing as a case-insensitive substring of
// the path. Boolean per keyword: a keyword occurring twice still counts once.
func FilenameScore(path string, kws []string) float64 {
	lowered := strings.ToLower(path)
	count := 0.0
	for _, kw := range kws {
		if strings.Contains(lowered, kw) {
			count++
		}
	}
	return count
}

// ContentScore counts keywords found anywhere in content, boolean per
// keyword. Missing or unreadable files arrive as empty content and score 0.
func ContentScore(content string, kws []string) float64 {
	if content == "" {
		return 0
	}
	lowered := strings.ToLower(content)
	count := 0.0
	for _, kw := range kws {
		if strings.Contains(lowered, kw) {
			count++
		}
	}
	return count
}

// RecencyScore maps a last-modification timestamp to [0, 1] with
// logarithmic decay: 1 - log10(1+ageDays)/2. A same-day file scores ~1,
// a ~9-day-old file ~0.5, and anything past ~99 days floors at 0.
// Unknown timestamps (0) score 0.
func RecencyScore(modified int64, now time.Time) float64 {
	if modified <= 0 {
		return 0
	}
	ageSeconds := float64(now.Unix() - modified)
	if ageSeconds < 0 {
		ageSeconds = 0
	}
	ageDays := ageSeconds / secondsPerDay
	score := 1 - math.Log10(1+ageDays)/2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SizePenalty grows slowly with file size: log10(1+bytes)/10.
func SizePenalty(sizeBytes int64) float64 {
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	return math.Log10(1+float64(sizeBytes)) / 10
}

func (s *Scorer) typeBonus(path string) float64 {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := s.bonusExts[ext]; ok {
		return s.weights.TypeBonus
	}
	return 0
}

// EstimateTokens converts a byte size into heuristic token units:
// ceil(sizeBytes / tokensPerChar). Used only for budgeting, never ranking.
func EstimateTokens(sizeBytes int64, tokensPerChar float64) int {
	if sizeBytes <= 0 {
		return 0
	}
	return int(math.Ceil(float64(sizeBytes) / tokensPerChar))
}
