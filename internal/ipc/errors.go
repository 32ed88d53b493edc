package ipc

import (
	"context"
	"errors"

	"clipstudio/internal/services"
)

// kindTimeout marks a wait that ended before the session settled.
const kindTimeout = "timeout"

// RemoteError is a classified error reported by the daemon. It matches the
// services sentinel for its kind under errors.Is.
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	if e.Kind == kindTimeout {
		return context.DeadlineExceeded
	}
	return services.MarkerForKind(e.Kind)
}

func errorKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return kindTimeout
	}
	return services.Kind(err)
}

func remoteError(message, kind string) error {
	if message == "" {
		return nil
	}
	return &RemoteError{Kind: kind, Message: message}
}
