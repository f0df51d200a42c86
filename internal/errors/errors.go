// Package errors defines the stable error taxonomy for ctxpick.
//
// Every failure mode that can surface to a caller carries a stable code,
// a human-readable message, and optional suggested fixes so the CLI can
// print a remediation hint (e.g. which agent CLI to install).
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NoCandidates indicates discovery produced an empty candidate pool
	NoCandidates ErrorCode = "NO_CANDIDATES"
	// GitUnavailable indicates the repository is not a git work tree or git is missing
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// AgentUnavailable indicates an agent's runtime is not installed or not authenticated
	AgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"
	// AgentResponseInvalid indicates an agent returned malformed or unusable output
	AgentResponseInvalid ErrorCode = "AGENT_RESPONSE_INVALID"
	// AgentsExhausted indicates every agent in the fallback chain failed
	AgentsExhausted ErrorCode = "AGENTS_EXHAUSTED"
	// ExternalProcessFailure indicates a subprocess (git, packer) exited non-zero
	ExternalProcessFailure ErrorCode = "EXTERNAL_PROCESS_FAILURE"
	// PackerFailure indicates the output packer failed; its exit code is preserved
	PackerFailure ErrorCode = "PACKER_FAILURE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// InstallMethod represents methods for installing tools
type InstallMethod string

const (
	// Brew installation via Homebrew
	Brew InstallMethod = "brew"
	// NPM installation via npm
	NPM InstallMethod = "npm"
	// Curl installation via install script
	Curl InstallMethod = "curl"
	// Manual installation
	Manual InstallMethod = "manual"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType   `json:"type"`
	Command     string          `json:"command,omitempty"`
	Safe        bool            `json:"safe,omitempty"`
	Description string          `json:"description,omitempty"`
	URL         string          `json:"url,omitempty"`
	Tool        string          `json:"tool,omitempty"`
	Methods     []InstallMethod `json:"methods,omitempty"`
}

// PickError represents a ctxpick error with code, message, and suggestions
type PickError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new PickError
func New(code ErrorCode, message string, cause error, fixes ...FixAction) *PickError {
	return &PickError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Error implements the error interface
func (e *PickError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PickError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PickError) WithDetails(details interface{}) *PickError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError for plain errors.
func CodeOf(err error) ErrorCode {
	var pe *PickError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return InternalError
}

// FixesOf extracts suggested fixes from err, if any.
func FixesOf(err error) []FixAction {
	var pe *PickError
	if errors.As(err, &pe) {
		return pe.SuggestedFixes
	}
	return nil
}

// InstallAgentFix builds the standard remediation hint for a missing agent CLI.
func InstallAgentFix(agent string) FixAction {
	fix := FixAction{
		Type:        InstallTool,
		Tool:        agent,
		Description: fmt.Sprintf("Install the %s CLI to enable agent selection", agent),
	}
	switch agent {
	case "claude":
		fix.Command = "npm install -g @anthropic-ai/claude-code"
		fix.Methods = []InstallMethod{NPM}
	case "codex":
		fix.Command = "npm install -g @openai/codex"
		fix.Methods = []InstallMethod{NPM, Brew}
	case "gemini":
		fix.Command = "npm install -g @google/gemini-cli"
		fix.Methods = []InstallMethod{NPM}
	case "opencode":
		fix.Command = "curl -fsSL https://opencode.ai/install | bash"
		fix.Methods = []InstallMethod{Curl, NPM, Brew}
	case "factory":
		fix.Command = "curl -fsSL https://app.factory.ai/cli | sh"
		fix.Methods = []InstallMethod{Curl}
	default:
		fix.Methods = []InstallMethod{Manual}
	}
	return fix
}
