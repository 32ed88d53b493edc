package main

import (
	"context"
	"errors"

	"clipstudio/internal/daemonctl"
	"clipstudio/internal/services"
)

const (
	exitFailure     = 1
	exitRejected    = 2
	exitUnavailable = 3
	exitTimeout     = 4
)

// exitCode maps a command error onto a process exit status so scripts can
// tell rejected input apart from an unreachable daemon.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidAction):
		return exitRejected
	case errors.Is(err, errDaemonUnavailable), errors.Is(err, daemonctl.ErrDaemonNotRunning):
		return exitUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return exitTimeout
	default:
		return exitFailure
	}
}
