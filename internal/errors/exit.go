package errors

// ExitCode represents a CLI exit code.
type ExitCode int

const (
	// ExitSuccess indicates a selection was produced.
	ExitSuccess ExitCode = 0

	// ExitError indicates a general error.
	ExitError ExitCode = 1

	// ExitNoCandidates indicates discovery produced an empty pool.
	// Distinct so CI can tell "nothing matched" from runtime failures.
	ExitNoCandidates ExitCode = 2

	// ExitAgentsExhausted indicates every agent failed and the ranked
	// fallback could not produce a selection either.
	ExitAgentsExhausted ExitCode = 3
)

// String returns a description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitSuccess:
		return "success"
	case ExitError:
		return "error"
	case ExitNoCandidates:
		return "no candidates"
	case ExitAgentsExhausted:
		return "agents exhausted"
	default:
		return "unknown"
	}
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	switch CodeOf(err) {
	case NoCandidates:
		return ExitNoCandidates
	case AgentsExhausted:
		return ExitAgentsExhausted
	default:
		return ExitError
	}
}
