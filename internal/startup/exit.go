package startup

import (
	"errors"
	"fmt"
)

// Process exit codes for unrecoverable boot failures.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitConfig      = 2
	ExitShardCount  = 3
	ExitShardSubset = 4
	ExitStorage     = 5
	ExitConnect     = 6
)

// ExitError carries the exit code a boot failure should end the process
// with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func Exit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps err to a process exit code. Errors without a code are
// generic failures.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneric
}
