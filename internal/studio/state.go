package studio

import (
	"clipstudio/internal/session"
)

// Phase names the orchestrator state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
	PhaseMerging    Phase = "merging"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
	PhaseFinalizing Phase = "finalizing"
	PhaseFinalized  Phase = "finalized"
)

// Busy reports whether work is in flight and user actions other than
// reading status are refused.
func (p Phase) Busy() bool {
	return p == PhaseGenerating || p == PhaseMerging || p == PhaseFinalizing
}

// State is the tagged union of orchestrator states.
type State interface {
	Phase() Phase
	isState()
}

// Idle waits for a prompt.
type Idle struct{}

// Generating tracks the in-flight generation job.
type Generating struct {
	Token  uint64
	Job    JobHandle
	Prompt string
}

// Merging tracks the in-flight stitch of URLs.
type Merging struct {
	Token uint64
	URLs  []string
}

// Ready offers recreate, add clip, and finalize. Err is set when the last
// merge or finalize attempt failed without losing any clips.
type Ready struct {
	Err error
}

// Failed holds the generation or submission error. The session is intact.
type Failed struct {
	Err error
}

// Finalizing records Video in the library.
type Finalizing struct {
	Token uint64
	Video Video
}

// Finalized is terminal for the session until a new one starts.
type Finalized struct {
	RecordID string
	Video    Video
}

func (Idle) Phase() Phase       { return PhaseIdle }
func (Generating) Phase() Phase { return PhaseGenerating }
func (Merging) Phase() Phase    { return PhaseMerging }
func (Ready) Phase() Phase      { return PhaseReady }
func (Failed) Phase() Phase     { return PhaseFailed }
func (Finalizing) Phase() Phase { return PhaseFinalizing }
func (Finalized) Phase() Phase  { return PhaseFinalized }

func (Idle) isState()       {}
func (Generating) isState() {}
func (Merging) isState()    {}
func (Ready) isState()      {}
func (Failed) isState()     {}
func (Finalizing) isState() {}
func (Finalized) isState()  {}

// JobStatus mirrors the generation service lifecycle.
type JobStatus string

const (
	JobStatusStarting   JobStatus = "starting"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
)

// JobHandle is the controller's view of one generation job.
type JobHandle struct {
	ID        string    `json:"id,omitempty"`
	Status    JobStatus `json:"status"`
	OutputURL string    `json:"output_url,omitempty"`
	Logs      string    `json:"logs,omitempty"`
}

// Preview is the playable reference for a prefix of the session.
type Preview struct {
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
}

// Empty reports whether no playable reference exists.
func (p Preview) Empty() bool { return p.URL == "" }

// Model is the complete orchestrator state for one authoring session. Values
// are treated as immutable; Apply returns a modified copy.
//
// previews[i] is the preview of the first i+1 clips: the clip itself for
// i == 0 and the stitched result otherwise. An empty entry means that prefix
// has not been merged successfully yet.
type Model struct {
	SessionID string
	State     State
	Prompt    string

	session   session.Session
	previews  []Preview
	nextToken uint64
}

// NewModel returns an idle model for sessionID.
func NewModel(sessionID string) Model {
	return Model{SessionID: sessionID, State: Idle{}}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	if m.State == nil {
		return PhaseIdle
	}
	return m.State.Phase()
}

// Session returns a copy of the clip session.
func (m Model) Session() session.Session {
	return m.session.Clone()
}

// Len returns the number of clips in the session.
func (m Model) Len() int {
	return m.session.Len()
}

// Preview returns the newest playable preview, which covers PreviewClips
// clips. It is empty only when the session is.
func (m Model) Preview() Preview {
	if idx := m.previewIndex(); idx >= 0 {
		return m.previews[idx]
	}
	return Preview{}
}

// PreviewClips returns how many clips the current preview covers.
func (m Model) PreviewClips() int {
	return m.previewIndex() + 1
}

// MergePending reports whether the full session has no stitched preview and
// no merge is running.
func (m Model) MergePending() bool {
	n := m.session.Len()
	if n < 2 || len(m.previews) < n {
		return false
	}
	if _, merging := m.State.(Merging); merging {
		return false
	}
	return m.previews[n-1].Empty()
}

// Job returns the in-flight job, if any.
func (m Model) Job() (JobHandle, bool) {
	if g, ok := m.State.(Generating); ok {
		return g.Job, true
	}
	return JobHandle{}, false
}

// Err returns the error carried by the current state.
func (m Model) Err() error {
	switch s := m.State.(type) {
	case Ready:
		return s.Err
	case Failed:
		return s.Err
	default:
		return nil
	}
}

func (m Model) previewIndex() int {
	for i := len(m.previews) - 1; i >= 0; i-- {
		if !m.previews[i].Empty() {
			return i
		}
	}
	return -1
}

// clone copies the slices so the result can be mutated without touching m.
func (m Model) clone() Model {
	out := m
	out.session = m.session.Clone()
	out.previews = append([]Preview(nil), m.previews...)
	return out
}

func (m *Model) issueToken() uint64 {
	m.nextToken++
	return m.nextToken
}
