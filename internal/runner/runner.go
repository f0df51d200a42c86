// Package runner abstracts external command execution behind a capability
// interface so selection and fallback logic can be tested with deterministic
// fakes instead of spawning real subprocesses.
package runner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ExecRunner abstracts command execution for testability.
type ExecRunner interface {
	// LookPath checks if a binary exists in PATH.
	LookPath(name string) (string, error)

	// Run executes a command in dir and returns its trimmed output.
	// A non-positive timeout uses the runner's default.
	Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (stdout, stderr string, err error)

	// RunStdin is Run with input provided on the command's stdin.
	RunStdin(ctx context.Context, dir string, timeout time.Duration, stdin string, name string, args ...string) (stdout, stderr string, err error)
}

// RealRunner implements ExecRunner using os/exec.
type RealRunner struct {
	// DefaultTimeout bounds each command execution when the caller
	// does not pass its own.
	DefaultTimeout time.Duration
}

// NewRealRunner creates a runner with the given default timeout.
func NewRealRunner(timeout time.Duration) *RealRunner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RealRunner{DefaultTimeout: timeout}
}

// LookPath checks if a binary exists in PATH.
func (r *RealRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes a command and returns its output.
func (r *RealRunner) Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, string, error) {
	return r.RunStdin(ctx, dir, timeout, "", name, args...)
}

// RunStdin executes a command with input on stdin and returns its output.
func (r *RealRunner) RunStdin(ctx context.Context, dir string, timeout time.Duration, stdin string, name string, args ...string) (string, string, error) {
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
}

// MockRunner implements ExecRunner for testing.
type MockRunner struct {
	mu       sync.Mutex
	lookPath map[string]string
	commands map[string]mockResult
	calls    []string
}

type mockResult struct {
	stdout string
	stderr string
	err    error
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		lookPath: make(map[string]string),
		commands: make(map[string]mockResult),
	}
}

// SetLookPath configures the mock to return a path for the given name.
func (m *MockRunner) SetLookPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookPath[name] = path
}

// SetCommand configures the mock result for a command. The key is either
// the bare command name or "name arg1 arg2 ...".
func (m *MockRunner) SetCommand(key string, stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[key] = mockResult{stdout: stdout, stderr: stderr, err: err}
}

// Calls returns every command line the mock has executed, in order.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// LookPath implements ExecRunner.
func (m *MockRunner) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path, ok := m.lookPath[name]; ok {
		return path, nil
	}
	return "", exec.ErrNotFound
}

// Run implements ExecRunner.
func (m *MockRunner) Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (string, string, error) {
	return m.RunStdin(ctx, dir, timeout, "", name, args...)
}

// RunStdin implements ExecRunner.
func (m *MockRunner) RunStdin(ctx context.Context, dir string, timeout time.Duration, stdin string, name string, args ...string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	full := name
	if len(args) > 0 {
		full = name + " " + strings.Join(args, " ")
	}
	m.calls = append(m.calls, full)

	// Exact command line first, then bare name.
	if result, ok := m.commands[full]; ok {
		return result.stdout, result.stderr, result.err
	}
	if result, ok := m.commands[name]; ok {
		return result.stdout, result.stderr, result.err
	}
	return "", "", exec.ErrNotFound
}
