// Package pick orchestrates the selection pipeline: keyword extraction,
// candidate discovery, scoring, budget selection, and optional agent
// delegation with deterministic fallback.
package pick

import (
	"context"

	"github.com/google/uuid"

	"ctxpick/internal/agent"
	"ctxpick/internal/config"
	"ctxpick/internal/discovery"
	"ctxpick/internal/errors"
	"ctxpick/internal/gitsource"
	"ctxpick/internal/keywords"
	"ctxpick/internal/logging"
	"ctxpick/internal/runner"
	"ctxpick/internal/scoring"
	"ctxpick/internal/selection"
)

// AgentAuto asks for the configured priority chain; AgentNone (or empty)
// disables delegation entirely.
const (
	AgentAuto = "auto"
	AgentNone = "none"
)

// Request is one selection run.
type Request struct {
	Question string
	// BudgetTokens is the token ceiling. Zero is honored literally;
	// negative means "use the configured default".
	BudgetTokens int
	// Agent selects delegation: a name, AgentAuto, or AgentNone/"".
	Agent string
}

// Result is the outcome of a selection run. Everything in it is computed
// fresh per run; nothing persists between invocations.
type Result struct {
	RunID           string               `json:"runId"`
	Question        string               `json:"question"`
	Source          string               `json:"source"` // "ranked" or "agent:<name>"
	Keywords        []string             `json:"keywords,omitempty"`
	Files           []scoring.ScoredFile `json:"files"`
	BudgetTokens    int                  `json:"budgetTokens"`
	EstimatedTokens int                  `json:"estimatedTokens"`
	Reasoning       string               `json:"reasoning,omitempty"`
	Confidence      float64              `json:"confidence,omitempty"`
	AgentAttempts   []agent.Attempt      `json:"agentAttempts,omitempty"`
}

// Paths returns the selected paths in final order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

// Engine wires the pipeline components together.
type Engine struct {
	cfg        *config.Config
	source     gitsource.Source
	exists     func(string) bool
	extractor  *keywords.Extractor
	discoverer *discovery.Discoverer
	scorer     *scoring.Scorer
	selector   *selection.Selector
	controller *agent.Controller
	logger     *logging.Logger
}

// NewEngine builds an engine from configuration. exists validates
// agent-returned paths; pass gitsource's Exists in production.
func NewEngine(cfg *config.Config, source gitsource.Source, exists func(string) bool, run runner.ExecRunner, logger *logging.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		source:     source,
		exists:     exists,
		extractor:  keywords.NewExtractor(cfg.Keywords),
		discoverer: discovery.NewDiscoverer(cfg.Discovery, source, logger),
		scorer:     scoring.NewScorer(cfg.Scoring, source, logger),
		selector:   selection.NewSelector(cfg.Selection),
		controller: agent.NewController(cfg, run, exists, logger),
		logger:     logger,
	}
}

// Scorer exposes the engine's scorer. Test hook for clock injection.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Pick runs one selection. When delegation succeeds the agent's validated
// selection short-circuits the deterministic pipeline; on exhaustion the
// deterministic pipeline runs as fallback.
func (e *Engine) Pick(ctx context.Context, req Request) (*Result, error) {
	budget := req.BudgetTokens
	if budget < 0 {
		budget = e.cfg.Selection.DefaultBudgetTokens
	}

	runID := uuid.NewString()
	logger := e.logger.With(map[string]interface{}{"runId": runID})
	logger.Info("selection run starting", map[string]interface{}{
		"budget": budget,
		"agent":  req.Agent,
	})

	var attempts []agent.Attempt
	chain := e.agentChain(req.Agent)
	if len(chain) > 0 {
		prompt := agent.BuildPrompt(req.Question, budget, e.cfg.RepoRoot)
		delegation := e.controller.Run(ctx, chain, prompt)
		attempts = delegation.Attempts

		if delegation.State.Kind == agent.Succeeded {
			return e.agentResult(runID, req.Question, budget, delegation), nil
		}
		logger.Warn("agent chain exhausted, falling back to ranked selection", map[string]interface{}{
			"attempts": len(attempts),
		})
	}

	result, err := e.ranked(ctx, runID, req.Question, budget)
	if err != nil {
		// When an agent chain was tried and the deterministic fallback
		// also failed, the terminal condition is exhaustion, not just the
		// fallback's own error.
		if len(attempts) > 0 {
			return nil, agent.ExhaustedError(chain, attempts, err)
		}
		return nil, err
	}
	result.AgentAttempts = attempts
	return result, nil
}

// agentChain resolves the requested agent into an ordered attempt list.
func (e *Engine) agentChain(requested string) []string {
	switch requested {
	case "", AgentNone:
		return nil
	case AgentAuto:
		return e.cfg.Agents.Priority
	default:
		return []string{requested}
	}
}

func (e *Engine) agentResult(runID, question string, budget int, d *agent.Delegation) *Result {
	files := make([]scoring.ScoredFile, len(d.Files))
	total := 0
	for i, path := range d.Files {
		size := e.source.FileSize(path)
		tokens := scoring.EstimateTokens(size, e.cfg.Scoring.TokensPerChar)
		files[i] = scoring.ScoredFile{Path: path, SizeBytes: size, EstimatedTokens: tokens}
		total += tokens
	}
	result := &Result{
		RunID:           runID,
		Question:        question,
		Source:          "agent:" + d.State.Agent,
		Files:           files,
		BudgetTokens:    budget,
		EstimatedTokens: total,
		AgentAttempts:   d.Attempts,
	}
	if d.Outcome != nil {
		result.Reasoning = d.Outcome.Reasoning
		result.Confidence = d.Outcome.Confidence
	}
	return result
}

// ranked runs the deterministic pipeline.
func (e *Engine) ranked(ctx context.Context, runID, question string, budget int) (*Result, error) {
	kws := e.extractor.Extract(question)

	paths, err := e.source.ListPaths(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := e.discoverer.Discover(ctx, paths, kws)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, errors.New(errors.NoCandidates,
			"no files matched the question and no always-include files exist", nil,
			errors.FixAction{
				Type:        errors.OpenDocs,
				Description: "Rephrase the question with terms that appear in the codebase",
			})
	}

	scored := e.scorer.ScoreMany(ctx, pool, kws)
	selected := e.selector.Select(scored, budget)
	if len(selected.Files) == 0 {
		return nil, errors.New(errors.NoCandidates, "selection produced no files", nil)
	}

	e.logger.Info("ranked selection complete", map[string]interface{}{
		"runId":    runID,
		"pool":     len(pool),
		"selected": len(selected.Files),
		"tokens":   selected.EstimatedTokens,
	})

	return &Result{
		RunID:           runID,
		Question:        question,
		Source:          "ranked",
		Keywords:        kws,
		Files:           selected.Files,
		BudgetTokens:    budget,
		EstimatedTokens: selected.EstimatedTokens,
	}, nil
}
