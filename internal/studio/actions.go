package studio

import (
	"fmt"

	"clipstudio/internal/services"
)

// Action names a user-initiated operation.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionRecreate   Action = "recreate"
	ActionAddClip    Action = "add-clip"
	ActionFinalize   Action = "finalize"
	ActionRetryMerge Action = "retry-merge"
	ActionNewSession Action = "new-session"
)

var allActions = []Action{ActionSubmit, ActionRecreate, ActionAddClip, ActionFinalize, ActionRetryMerge, ActionNewSession}

// InvalidActionError reports an action that the current phase does not allow.
// It matches services.ErrInvalidAction under errors.Is.
type InvalidActionError struct {
	Action Action
	Phase  Phase
	Reason string
}

func (e *InvalidActionError) Error() string {
	msg := fmt.Sprintf("%s not allowed while %s", e.Action, e.Phase)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidActionError) Unwrap() error { return services.ErrInvalidAction }

// Allowed returns the actions the model accepts right now.
func Allowed(m Model) []Action {
	out := make([]Action, 0, len(allActions))
	for _, action := range allActions {
		if checkAction(m, action) == nil {
			out = append(out, action)
		}
	}
	return out
}

func checkAction(m Model, action Action) error {
	phase := m.Phase()
	deny := func(reason string) error {
		return &InvalidActionError{Action: action, Phase: phase, Reason: reason}
	}
	switch action {
	case ActionSubmit:
		if phase != PhaseIdle && phase != PhaseFailed {
			return deny("")
		}
	case ActionRecreate:
		if phase != PhaseReady {
			return deny("")
		}
		if m.Len() == 0 {
			return deny("session has no clips")
		}
	case ActionAddClip:
		if phase != PhaseReady {
			return deny("")
		}
	case ActionFinalize:
		if phase != PhaseReady {
			return deny("")
		}
		if m.Preview().Empty() {
			return deny("nothing to finalize")
		}
	case ActionRetryMerge:
		if phase != PhaseReady {
			return deny("")
		}
		if !m.MergePending() {
			return deny("no merge pending")
		}
	case ActionNewSession:
		if phase.Busy() {
			return deny("")
		}
	default:
		return deny("unknown action")
	}
	return nil
}
