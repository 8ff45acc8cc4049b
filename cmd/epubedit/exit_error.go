package main

import (
	"errors"
	"fmt"

	"github.com/childeyouyu/epubedit"
	"github.com/childeyouyu/epubedit/internal/config"
	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitProtected = 3
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a command-line mistake.
func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

// usageArgs turns positional argument failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// exitCodeFor maps an error returned by the command tree to a process exit code.
func exitCodeFor(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, epubedit.ErrUnknownField),
		errors.Is(err, epubedit.ErrReadOnlyField),
		errors.Is(err, epubedit.ErrInvalidValue),
		errors.Is(err, config.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, epubedit.ErrDRMProtected):
		return exitProtected
	default:
		return exitFailure
	}
}
