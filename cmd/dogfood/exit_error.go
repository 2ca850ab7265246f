// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/mangimangi/git-dogfood/internal/install"
	"github.com/mangimangi/git-dogfood/internal/issue"
	"github.com/mangimangi/git-dogfood/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit status " + e.Code.String()
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as an invocation problem (exit code 2).
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: types.ExitUsage, Err: err}
}

// exitCodeOf maps an error returned from command execution to a process
// exit code. A missing ref is a usage error wherever it surfaces.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, install.ErrMissingRef) {
		return types.ExitUsage
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue == issue.ConfigLoadFailedId {
		return types.ExitUsage
	}
	return types.ExitFailure
}
