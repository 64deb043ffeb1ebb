package cmd

import (
	"errors"
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/gridhaven/kraken/pkg/adaptor"
)

// cliError carries a process exit code alongside the failure.
type cliError struct {
	code    int
	message string
	err     error
}

func (e *cliError) Error() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.err)
}

func (e *cliError) Unwrap() error { return e.err }

// exitError creates an error that makes the CLI exit with the given code.
func exitError(code int, message string, err error) error {
	return &cliError{code: code, message: message, err: err}
}

// exitCode resolves the process exit code for a command failure. Errors
// from the adaptor layer map onto foundry codes by kind.
func exitCode(err error) int {
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch {
	case adaptor.IsLocation(err), adaptor.IsConfiguration(err):
		return foundry.ExitInvalidArgument
	case adaptor.IsNotFound(err):
		return foundry.ExitFileNotFound
	case adaptor.IsTransport(err), adaptor.IsBackend(err), adaptor.IsParse(err):
		return foundry.ExitExternalServiceUnavailable
	default:
		return 1
	}
}
