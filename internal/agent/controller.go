package agent

import (
	"context"
	"time"

	"ctxpick/internal/config"
	"ctxpick/internal/errors"
	"ctxpick/internal/logging"
	"ctxpick/internal/runner"
)

// StateKind enumerates the controller's states.
type StateKind int

const (
	// Idle: no attempt has started.
	Idle StateKind = iota
	// Trying: an attempt against State.Agent is in flight.
	Trying
	// Succeeded: a validated outcome was produced by State.Agent.
	Succeeded
	// ExhaustedFallback: every agent failed; the deterministic pipeline
	// takes over.
	ExhaustedFallback
)

// String returns the state name.
func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Trying:
		return "trying"
	case Succeeded:
		return "succeeded"
	case ExhaustedFallback:
		return "exhausted-fallback"
	default:
		return "unknown"
	}
}

// State is the tagged controller state: which agent, and where we are.
type State struct {
	Kind  StateKind `json:"kind"`
	Agent string    `json:"agent,omitempty"`
}

// Attempt records one agent try and why it failed, for diagnostics.
type Attempt struct {
	Agent string           `json:"agent"`
	Code  errors.ErrorCode `json:"code,omitempty"`
	Error string           `json:"error,omitempty"`
}

// Delegation is the controller's final result. When State.Kind is Succeeded,
// Files holds the existence-filtered selection; on ExhaustedFallback the
// caller runs the deterministic pipeline instead.
type Delegation struct {
	State    State     `json:"state"`
	Files    []string  `json:"files,omitempty"`
	Outcome  *Outcome  `json:"outcome,omitempty"`
	Attempts []Attempt `json:"attempts"`
}

// Controller drives the agent fallback chain as an explicit state machine.
type Controller struct {
	repoRoot string
	timeout  time.Duration
	defs     map[string]Definition
	run      runner.ExecRunner
	exists   func(path string) bool
	logger   *logging.Logger

	state State
}

// NewController creates a controller. exists validates paths returned by
// agents against the repository.
func NewController(cfg *config.Config, run runner.ExecRunner, exists func(string) bool, logger *logging.Logger) *Controller {
	timeout := time.Duration(cfg.Agents.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Controller{
		repoRoot: cfg.RepoRoot,
		timeout:  timeout,
		defs:     Known(),
		run:      run,
		exists:   exists,
		logger:   logger,
		state:    State{Kind: Idle},
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// Run tries each agent in chain order with the given prompt. Every
// agent-stage error is caught and converted into a chain advance; only the
// final state tells the caller whether to fall back.
func (c *Controller) Run(ctx context.Context, chain []string, prompt string) *Delegation {
	delegation := &Delegation{}

	for _, name := range chain {
		c.state = State{Kind: Trying, Agent: name}

		outcome, err := c.try(ctx, name, prompt)
		if err != nil {
			code := errors.CodeOf(err)
			c.logger.Warn("agent attempt failed, advancing chain", map[string]interface{}{
				"agent": name,
				"code":  string(code),
				"error": err.Error(),
			})
			delegation.Attempts = append(delegation.Attempts, Attempt{
				Agent: name,
				Code:  code,
				Error: err.Error(),
			})
			continue
		}

		c.state = State{Kind: Succeeded, Agent: name}
		delegation.State = c.state
		delegation.Files = outcome.Files
		delegation.Outcome = outcome
		delegation.Attempts = append(delegation.Attempts, Attempt{Agent: name})
		c.logger.Info("agent selection succeeded", map[string]interface{}{
			"agent":      name,
			"files":      len(outcome.Files),
			"confidence": outcome.Confidence,
		})
		return delegation
	}

	c.state = State{Kind: ExhaustedFallback}
	delegation.State = c.state
	return delegation
}

// try performs a single Trying(agent) attempt: availability check, request,
// parse, validate, and existence-filter.
func (c *Controller) try(ctx context.Context, name, prompt string) (*Outcome, error) {
	def, ok := c.defs[name]
	if !ok {
		return nil, errors.New(errors.AgentUnavailable, "unknown agent: "+name, nil)
	}

	raw, err := Request(ctx, def, prompt, c.repoRoot, c.timeout, c.run)
	if err != nil {
		return nil, err
	}

	outcome, err := ParseOutcome(raw)
	if err != nil {
		return nil, err
	}

	// Paths that do not exist under the repository root are silently
	// dropped; an outcome reduced to nothing is a failure, not an empty
	// selection.
	kept := outcome.Files[:0]
	for _, f := range outcome.Files {
		if c.exists(f) {
			kept = append(kept, f)
		}
	}
	outcome.Files = kept
	if len(outcome.Files) == 0 {
		return nil, errors.New(errors.AgentResponseInvalid,
			"agent returned no existing files", nil)
	}
	return outcome, nil
}

// ExhaustedError builds the terminal error used when the fallback chain is
// exhausted and the deterministic pipeline cannot proceed either. cause is
// the fallback's own failure; the attempts are attached as details and each
// chain agent gets an install remediation hint.
func ExhaustedError(chain []string, attempts []Attempt, cause error) error {
	fixes := make([]errors.FixAction, 0, len(chain))
	for _, name := range chain {
		fixes = append(fixes, errors.InstallAgentFix(name))
	}
	return errors.New(errors.AgentsExhausted,
		"every agent failed and the ranked fallback produced nothing", cause,
		fixes...).WithDetails(attempts)
}
