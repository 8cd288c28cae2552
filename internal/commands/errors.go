package commands

import (
	"errors"
	"fmt"
	"io"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

// fail prints err to errOut and maps it onto an exit code.
// An expired session also drops the stored token.
func fail(cfg *config.Config, errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		if cfg.HasToken() {
			_ = cfg.RemoveToken()
		}
		fmt.Fprintln(errOut, "error: session expired (run: sq login)")
		return exitcode.AuthError
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrAmbiguous),
		errors.Is(err, service.ErrRejected):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// usageError prints a usage problem.
func usageError(errOut io.Writer, format string, a ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", a...)
	return exitcode.UserError
}
