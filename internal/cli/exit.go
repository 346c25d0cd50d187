package cli

import (
	"fmt"

	"github.com/myusoutharm/svcmon/internal/detector"
)

// Exit codes for scheduler and operator scripting. Passes that found
// nothing to do exit zero; only failures are non-zero, each kind
// distinguishable.
const (
	ExitSuccess        = 0
	ExitConfigError    = 1
	ExitQueryError     = 2
	ExitDispatchFailed = 3
)

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates an error carrying the given exit code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the exit code an error maps to.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if e, ok := err.(*exitError); ok {
		return e.code
	}
	return ExitConfigError
}

// outcomeExitCode maps a detection outcome to its exit code.
func outcomeExitCode(o detector.Outcome) int {
	switch o {
	case detector.OutcomeConfigError:
		return ExitConfigError
	case detector.OutcomeQueryError:
		return ExitQueryError
	case detector.OutcomeDispatchFail:
		return ExitDispatchFailed
	default:
		return ExitSuccess
	}
}
