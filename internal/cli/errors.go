package cli

import "errors"

// ErrUsage marks errors caused by the invocation or its inputs rather than
// by the tool itself.
var ErrUsage = errors.New("cli usage error")

// Exit statuses returned by ExitCode.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

type usageError struct {
	msg   string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// wrapUsageError keeps cause reachable through errors.As.
func wrapUsageError(msg string, cause error) error {
	return usageError{msg: msg, cause: cause}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Unwrap() error {
	return e.cause
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// ExitCode maps an error returned by the root command to a process status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}
