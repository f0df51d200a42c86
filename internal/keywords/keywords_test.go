package keywords

import (
	"reflect"
	"testing"

	"ctxpick/internal/config"
)

func newTestExtractor() *Extractor {
	return NewExtractor(config.DefaultConfig().Keywords)
}

func TestExtractBasic(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("How does JWT auth_token validation work?")
	want := []string{"jwt", "auth_token", "validation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractLowercases(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("WebSocket RECONNECT logic")
	want := []string{"websocket", "reconnect", "logic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractDropsShortTokens(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("is db io ok auth")
	want := []string{"auth"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v (tokens under 3 chars dropped)", got, want)
	}
}

func TestExtractDropsStopwords(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("where does the session token come from")
	for _, kw := range got {
		if kw == "where" || kw == "the" || kw == "from" || kw == "does" {
			t.Errorf("stopword %q survived extraction", kw)
		}
	}
	found := false
	for _, kw := range got {
		if kw == "session" {
			found = true
		}
	}
	if !found {
		t.Errorf("Extract = %v, should contain session", got)
	}
}

func TestExtractDeduplicatesPreservingOrder(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("cache cache invalidation cache")
	want := []string{"cache", "invalidation"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractSplitsOnPunctuation(t *testing.T) {
	e := newTestExtractor()
	got := e.Extract("auth-service.handleLogin()")
	// Lowercasing happens before tokenization, so camelCase does not split.
	want := []string{"auth", "service", "handlelogin"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractEmptyQuestion(t *testing.T) {
	e := newTestExtractor()
	if got := e.Extract(""); len(got) != 0 {
		t.Errorf("Extract(\"\") = %v, want empty", got)
	}
	// Only stopwords and short tokens: empty keyword set is valid.
	if got := e.Extract("what is the"); len(got) != 0 {
		t.Errorf("Extract = %v, want empty", got)
	}
}

func TestExtractStableAcrossRuns(t *testing.T) {
	e := newTestExtractor()
	q := "compare parser tokenizer parser lexer tokenizer"
	first := e.Extract(q)
	for i := 0; i < 5; i++ {
		if got := e.Extract(q); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Extract = %v, want %v", i, got, first)
		}
	}
}

func TestExtractCustomConfig(t *testing.T) {
	e := NewExtractor(config.KeywordsConfig{
		MinLength: 5,
		Stopwords: []string{"hello"},
	})
	got := e.Extract("hello world tiny parsers")
	want := []string{"world", "parsers"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}
