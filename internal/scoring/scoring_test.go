package scoring

import (
	"bytes"
	"context"
	"testing"
	"time"

	"ctxpick/internal/config"
	"ctxpick/internal/logging"
)

type fakeSource struct {
	sizes    map[string]int64
	contents map[string]string
	modified map[string]int64
}

func (f *fakeSource) ListPaths(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeSource) SearchContent(ctx context.Context, kws []string) (map[string]struct{}, error) {
	return nil, nil
}
func (f *fakeSource) FileSize(path string) int64     { return f.sizes[path] }
func (f *fakeSource) FileContent(path string) string { return f.contents[path] }
func (f *fakeSource) LastModified(ctx context.Context, path string) int64 {
	return f.modified[path]
}

var testNow = time.Unix(1756380000, 0)

func newTestScorer(src *fakeSource) *Scorer {
	logger := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Output: &bytes.Buffer{}})
	s := NewScorer(config.DefaultConfig().Scoring, src, logger)
	s.SetClock(func() time.Time { return testNow })
	return s
}

func TestFilenameScoreBooleanPerKeyword(t *testing.T) {
	// "auth" appears twice in the path but counts once.
	if got := FilenameScore("auth/auth-service.js", []string{"auth"}); got != 1 {
		t.Errorf("FilenameScore = %v, want 1", got)
	}
	if got := FilenameScore("auth/jwt-handler.js", []string{"auth", "jwt"}); got != 2 {
		t.Errorf("FilenameScore = %v, want 2", got)
	}
	if got := FilenameScore("middleware.js", []string{"auth", "jwt"}); got != 0 {
		t.Errorf("FilenameScore = %v, want 0", got)
	}
}

func TestFilenameScoreBoundedAndMonotone(t *testing.T) {
	path := "src/auth/jwt/session.go"
	small := []string{"auth"}
	grown := []string{"auth", "jwt", "session", "zebra"}

	sSmall := FilenameScore(path, small)
	sGrown := FilenameScore(path, grown)

	if sSmall > float64(len(small)) {
		t.Errorf("score %v exceeds |K| = %d", sSmall, len(small))
	}
	if sGrown > float64(len(grown)) {
		t.Errorf("score %v exceeds |K| = %d", sGrown, len(grown))
	}
	if sGrown < sSmall {
		t.Errorf("superset keyword set reduced score: %v < %v", sGrown, sSmall)
	}
}

func TestContentScore(t *testing.T) {
	content := "func ValidateJWT(token string) error { // auth auth auth }"
	if got := ContentScore(content, []string{"auth", "jwt", "missing"}); got != 2 {
		t.Errorf("ContentScore = %v, want 2 (boolean per keyword)", got)
	}
	if got := ContentScore("", []string{"auth"}); got != 0 {
		t.Errorf("ContentScore(empty) = %v, want 0", got)
	}
}

func TestRecencyScoreProperties(t *testing.T) {
	now := testNow

	// Same-day file scores near 1.
	if got := RecencyScore(now.Unix(), now); got <= 0.99 {
		t.Errorf("RecencyScore(age=0) = %v, want > 0.99", got)
	}

	// log10(1+9)/2 = 0.5, so a ~9-day-old file scores about 0.5.
	old9 := now.Add(-9 * 24 * time.Hour).Unix()
	if got := RecencyScore(old9, now); got < 0.45 || got > 0.55 {
		t.Errorf("RecencyScore(9d) = %v, want ~0.5", got)
	}

	// The decay crosses zero just before 100 days and clamps there.
	old120 := now.Add(-120 * 24 * time.Hour).Unix()
	if got := RecencyScore(old120, now); got != 0 {
		t.Errorf("RecencyScore(120d) = %v, want 0", got)
	}

	// Monotonically non-increasing in age.
	prev := 2.0
	for days := 0; days <= 4000; days += 50 {
		ts := now.Add(-time.Duration(days) * 24 * time.Hour).Unix()
		got := RecencyScore(ts, now)
		if got > prev {
			t.Fatalf("recency increased with age at %d days: %v > %v", days, got, prev)
		}
		if got < 0 {
			t.Fatalf("recency went negative at %d days: %v", days, got)
		}
		prev = got
	}

	// Very old files floor at exactly 0.
	ancient := now.Add(-100000 * 24 * time.Hour).Unix()
	if got := RecencyScore(ancient, now); got != 0 {
		t.Errorf("RecencyScore(ancient) = %v, want 0", got)
	}

	// Unknown timestamp scores 0.
	if got := RecencyScore(0, now); got != 0 {
		t.Errorf("RecencyScore(0) = %v, want 0", got)
	}
}

func TestSizePenaltyMonotone(t *testing.T) {
	prev := -1.0
	for _, size := range []int64{0, 10, 1000, 100000, 10000000} {
		got := SizePenalty(size)
		if got < prev {
			t.Fatalf("SizePenalty(%d) = %v decreased from %v", size, got, prev)
		}
		prev = got
	}
}

func TestLargerFileScoresStrictlyLower(t *testing.T) {
	src := &fakeSource{
		sizes:    map[string]int64{"small.go": 100, "large.go": 100000},
		contents: map[string]string{"small.go": "auth", "large.go": "auth"},
		modified: map[string]int64{"small.go": testNow.Unix(), "large.go": testNow.Unix()},
	}
	s := newTestScorer(src)
	kws := []string{"auth"}

	small := s.Score(context.Background(), "small.go", kws)
	large := s.Score(context.Background(), "large.go", kws)
	if large.Score >= small.Score {
		t.Errorf("identical files except size: large %v should score strictly below small %v",
			large.Score, small.Score)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(3700, 3.7); got != 1000 {
		t.Errorf("EstimateTokens(3700) = %d, want 1000", got)
	}
	if got := EstimateTokens(100, 3.7); got != 28 {
		t.Errorf("EstimateTokens(100) = %d, want 28", got)
	}
	if got := EstimateTokens(0, 3.7); got != 0 {
		t.Errorf("EstimateTokens(0) = %d, want 0", got)
	}
	if got := EstimateTokens(1, 3.7); got != 1 {
		t.Errorf("EstimateTokens(1) = %d, want 1", got)
	}
}

func TestScoreManyRanksFilenameMatchFirst(t *testing.T) {
	src := &fakeSource{
		sizes: map[string]int64{"auth-service.js": 500, "middleware.js": 500},
		contents: map[string]string{
			"auth-service.js": "jwt verification",
			"middleware.js":   "generic plumbing",
		},
		modified: map[string]int64{
			"auth-service.js": testNow.Unix() - 86400,
			"middleware.js":   testNow.Unix() - 86400,
		},
	}
	s := newTestScorer(src)

	ranked := s.ScoreMany(context.Background(), []string{"middleware.js", "auth-service.js"}, []string{"auth", "jwt"})
	if ranked[0].Path != "auth-service.js" {
		t.Errorf("ranked[0] = %q, want auth-service.js", ranked[0].Path)
	}
}

func TestScoreManyStableSort(t *testing.T) {
	// Three identical files tie exactly; input order must be preserved.
	src := &fakeSource{
		sizes:    map[string]int64{"a.go": 100, "b.go": 100, "c.go": 100},
		contents: map[string]string{"a.go": "x", "b.go": "x", "c.go": "x"},
		modified: map[string]int64{},
	}
	s := newTestScorer(src)
	input := []string{"b.go", "a.go", "c.go"}

	first := s.ScoreMany(context.Background(), input, []string{"auth"})
	for run := 0; run < 5; run++ {
		again := s.ScoreMany(context.Background(), input, []string{"auth"})
		for i := range first {
			if again[i].Path != first[i].Path {
				t.Fatalf("run %d: order changed at %d: %q vs %q", run, i, again[i].Path, first[i].Path)
			}
		}
	}
	if first[0].Path != "b.go" || first[1].Path != "a.go" || first[2].Path != "c.go" {
		t.Errorf("tied candidates should keep input order, got %v", first)
	}
}

func TestScoreUnreadableFile(t *testing.T) {
	src := &fakeSource{sizes: map[string]int64{}, contents: map[string]string{}, modified: map[string]int64{}}
	s := newTestScorer(src)

	got := s.Score(context.Background(), "ghost.go", []string{"auth"})
	if got.SizeBytes != 0 || got.EstimatedTokens != 0 {
		t.Errorf("unreadable file: size=%d tokens=%d, want zeros", got.SizeBytes, got.EstimatedTokens)
	}
	// Type bonus still applies from the extension; content and size contribute 0.
	if got.Score < 0 {
		t.Errorf("score = %v, should not be negative for an empty .go file", got.Score)
	}
}
