package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clipstudio/internal/services"
	"clipstudio/internal/studio"
)

// SessionController abstracts the studio controller operations exposed to
// API consumers.
type SessionController interface {
	Submit(ctx context.Context, prompt string) (studio.Snapshot, error)
	Recreate(ctx context.Context) (studio.Snapshot, error)
	AddClip(ctx context.Context) (studio.Snapshot, error)
	Finalize(ctx context.Context) (studio.Snapshot, error)
	RetryMerge(ctx context.Context) (studio.Snapshot, error)
	NewSession(ctx context.Context) (studio.Snapshot, error)
	Snapshot() studio.Snapshot
	Wait(ctx context.Context, pred func(studio.Snapshot) bool) (studio.Snapshot, error)
}

// SessionService exposes session actions returning API DTOs.
type SessionService struct {
	controller SessionController
}

// NewSessionService constructs a SessionService around the provided controller.
func NewSessionService(controller SessionController) *SessionService {
	if controller == nil {
		return nil
	}
	return &SessionService{controller: controller}
}

// Current returns the session as it stands now.
func (s *SessionService) Current() (Session, error) {
	if s == nil || s.controller == nil {
		return Session{}, unavailable()
	}
	return FromSnapshot(s.controller.Snapshot()), nil
}

// Perform runs the named action. Unknown action names are validation errors.
func (s *SessionService) Perform(ctx context.Context, action string, req ActionRequest) (Session, error) {
	if s == nil || s.controller == nil {
		return Session{}, unavailable()
	}
	var (
		snap studio.Snapshot
		err  error
	)
	switch studio.Action(strings.TrimSpace(action)) {
	case studio.ActionSubmit:
		snap, err = s.controller.Submit(ctx, req.Prompt)
	case studio.ActionRecreate:
		snap, err = s.controller.Recreate(ctx)
	case studio.ActionAddClip:
		snap, err = s.controller.AddClip(ctx)
	case studio.ActionFinalize:
		snap, err = s.controller.Finalize(ctx)
	case studio.ActionRetryMerge:
		snap, err = s.controller.RetryMerge(ctx)
	case studio.ActionNewSession, "new":
		snap, err = s.controller.NewSession(ctx)
	default:
		return Session{}, services.Wrap(services.ErrValidation, "api", "session", fmt.Sprintf("unknown action %q", action), nil)
	}
	if err != nil {
		return Session{}, err
	}
	return FromSnapshot(snap), nil
}

// WaitSettled blocks until no work is in flight or timeout elapses. A
// non-positive timeout waits until ctx ends.
func (s *SessionService) WaitSettled(ctx context.Context, timeout time.Duration) (Session, error) {
	if s == nil || s.controller == nil {
		return Session{}, unavailable()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	snap, err := s.controller.Wait(ctx, studio.Snapshot.Settled)
	return FromSnapshot(snap), err
}

func unavailable() error {
	return services.Wrap(services.ErrConfiguration, "api", "session", "studio controller unavailable", nil)
}
