package studio

import (
	"time"

	"clipstudio/internal/services"
	"clipstudio/internal/session"
)

// Snapshot is a read-only view of the controller for status output.
type Snapshot struct {
	SessionID    string         `json:"session_id"`
	Phase        Phase          `json:"phase"`
	Prompt       string         `json:"prompt,omitempty"`
	Job          *JobHandle     `json:"job,omitempty"`
	Clips        []session.Clip `json:"clips"`
	Preview      Preview        `json:"preview"`
	PreviewClips int            `json:"preview_clips"`
	MergePending bool           `json:"merge_pending"`
	Error        string         `json:"error,omitempty"`
	ErrorKind    string         `json:"error_kind,omitempty"`
	RecordID     string         `json:"record_id,omitempty"`
	Actions      []Action       `json:"actions"`
	Version      uint64         `json:"version"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewSnapshot renders m.
func NewSnapshot(m Model, version uint64, updatedAt time.Time) Snapshot {
	snap := Snapshot{
		SessionID:    m.SessionID,
		Phase:        m.Phase(),
		Prompt:       m.Prompt,
		Clips:        m.session.Clips(),
		Preview:      m.Preview(),
		PreviewClips: m.PreviewClips(),
		MergePending: m.MergePending(),
		Actions:      Allowed(m),
		Version:      version,
		UpdatedAt:    updatedAt,
	}
	if job, ok := m.Job(); ok {
		snap.Job = &job
	}
	if err := m.Err(); err != nil {
		snap.Error = err.Error()
		snap.ErrorKind = services.Kind(err)
	}
	if fin, ok := m.State.(Finalized); ok {
		snap.RecordID = fin.RecordID
	}
	return snap
}

// Settled reports whether no work is in flight.
func (s Snapshot) Settled() bool {
	return !s.Phase.Busy()
}

// Can reports whether action is currently accepted.
func (s Snapshot) Can(action Action) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}
