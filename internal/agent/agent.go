// Package agent delegates file selection to external AI agent CLIs with a
// deterministic fallback chain. Agents are tried strictly one at a time in
// priority order; their output is validated, never trusted blindly.
package agent

import (
	"context"
	"time"

	"ctxpick/internal/errors"
	"ctxpick/internal/runner"
)

// Definition describes how to invoke one agent's CLI runtime.
type Definition struct {
	// Name identifies the agent in config and CLI flags.
	Name string
	// Binary is the executable looked up on PATH.
	Binary string
	// Args builds the non-interactive invocation for a prompt.
	Args func(prompt string) []string
}

// Known returns the registry of supported agents. The selection prompt is
// passed as an argument in each CLI's non-interactive ("print/exec") mode.
func Known() map[string]Definition {
	defs := []Definition{
		{
			Name:   "claude",
			Binary: "claude",
			Args:   func(p string) []string { return []string{"-p", p} },
		},
		{
			Name:   "codex",
			Binary: "codex",
			Args:   func(p string) []string { return []string{"exec", p} },
		},
		{
			Name:   "gemini",
			Binary: "gemini",
			Args:   func(p string) []string { return []string{"-p", p} },
		},
		{
			Name:   "opencode",
			Binary: "opencode",
			Args:   func(p string) []string { return []string{"run", p} },
		},
		{
			Name:   "factory",
			Binary: "droid",
			Args:   func(p string) []string { return []string{"exec", p} },
		},
	}
	m := make(map[string]Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

// CheckAvailable reports whether the agent's runtime is installed.
func CheckAvailable(def Definition, run runner.ExecRunner) bool {
	_, err := run.LookPath(def.Binary)
	return err == nil
}

// Request invokes the agent's CLI with the prompt and returns its raw
// response. An unavailable runtime fails fast with a cause distinct from a
// request-level failure.
func Request(ctx context.Context, def Definition, prompt string, dir string, timeout time.Duration, run runner.ExecRunner) (string, error) {
	if !CheckAvailable(def, run) {
		return "", errors.New(errors.AgentUnavailable,
			def.Name+" runtime is not installed", nil,
			errors.InstallAgentFix(def.Name))
	}

	stdout, stderr, err := run.Run(ctx, dir, timeout, def.Binary, def.Args(prompt)...)
	if err != nil {
		return "", errors.New(errors.ExternalProcessFailure,
			def.Name+" request failed", err).WithDetails(stderr)
	}
	return stdout, nil
}
