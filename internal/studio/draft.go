package studio

import (
	"time"

	"clipstudio/internal/services"
	"clipstudio/internal/session"
)

// Draft is the persisted form of a Model. It lets a restarted daemon recover
// the clips of an unfinished session.
type Draft struct {
	SessionID string         `json:"session_id"`
	Phase     Phase          `json:"phase"`
	Prompt    string         `json:"prompt,omitempty"`
	Clips     []session.Clip `json:"clips"`
	Previews  []Preview      `json:"previews"`
	JobID     string         `json:"job_id,omitempty"`
	RecordID  string         `json:"record_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	SavedAt   time.Time      `json:"saved_at"`
}

// Draft captures m for persistence.
func (m Model) Draft(now time.Time) Draft {
	d := Draft{
		SessionID: m.SessionID,
		Phase:     m.Phase(),
		Prompt:    m.Prompt,
		Clips:     m.session.Clips(),
		Previews:  append([]Preview(nil), m.previews...),
		SavedAt:   now.UTC(),
	}
	if job, ok := m.Job(); ok {
		d.JobID = job.ID
	}
	if fin, ok := m.State.(Finalized); ok {
		d.RecordID = fin.RecordID
	}
	if err := m.Err(); err != nil {
		d.Error = err.Error()
		d.ErrorKind = services.Kind(err)
	}
	return d
}

// RestoreModel rebuilds a model from a draft. Work that was in flight when
// the draft was saved cannot be resumed: an interrupted job is dropped (its
// prompt stays in Prompt), an interrupted merge leaves the merge pending, and
// an interrupted finalize returns to Ready unless Restore found its record.
func RestoreModel(d Draft) Model {
	m := NewModel(d.SessionID)
	m.Prompt = d.Prompt
	m.session = session.FromClips(d.Clips)
	m.previews = alignPreviews(m.session, d.Previews)

	switch {
	case d.Phase == PhaseFinalized && d.RecordID != "":
		m.State = Finalized{RecordID: d.RecordID, Video: BuildVideo(m, d.SavedAt)}
	case m.session.Len() == 0:
		m.State = Idle{}
	default:
		m.State = Ready{}
	}
	return m
}

func alignPreviews(s session.Session, stored []Preview) []Preview {
	n := s.Len()
	out := make([]Preview, n)
	copy(out, stored)
	if n > 0 {
		// The one-clip prefix is always the clip itself.
		clips := s.Clips()
		out[0] = Preview{URL: clips[0].URL}
	}
	return out
}
