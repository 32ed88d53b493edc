package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Clip describes one generated clip of the session.
type Clip struct {
	Index     int    `json:"index"`
	URL       string `json:"url"`
	Prompt    string `json:"prompt"`
	JobID     string `json:"jobId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Job captures the in-flight generation job.
type Job struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status"`
	OutputURL string `json:"outputUrl,omitempty"`
	LastLog   string `json:"lastLog,omitempty"`
}

// Preview is the playable reference covering the first Clips clips.
type Preview struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
	Clips    int    `json:"clips"`
}

// Session is the transport view of the authoring session.
type Session struct {
	ID           string   `json:"id"`
	Phase        string   `json:"phase"`
	Busy         bool     `json:"busy"`
	Prompt       string   `json:"prompt,omitempty"`
	Job          *Job     `json:"job,omitempty"`
	Clips        []Clip   `json:"clips"`
	Preview      *Preview `json:"preview,omitempty"`
	MergePending bool     `json:"mergePending"`
	Error        string   `json:"error,omitempty"`
	ErrorKind    string   `json:"errorKind,omitempty"`
	RecordID     string   `json:"recordId,omitempty"`
	Actions      []string `json:"actions"`
	Version      uint64   `json:"version"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

// SessionResponse wraps a session for API responses.
type SessionResponse struct {
	Session Session `json:"session"`
}

// ActionRequest is the body accepted by session action endpoints. Only submit
// reads Prompt.
type ActionRequest struct {
	Prompt string `json:"prompt,omitempty"`
}

// Video describes a finalized library entry.
type Video struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	VideoURL    string `json:"videoUrl"`
	PublicID    string `json:"publicId"`
	Title       string `json:"title"`
	Topic       string `json:"topic"`
	Tone        string `json:"tone"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ClipCount   int    `json:"clipCount"`
	ArchiveURL  string `json:"archiveUrl,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// LibraryListResponse wraps a collection of videos for API responses.
type LibraryListResponse struct {
	Videos []Video `json:"videos"`
}

// VideoResponse wraps a single video.
type VideoResponse struct {
	Video Video `json:"video"`
}

// CompileRequest selects library videos to stitch, in order.
type CompileRequest struct {
	IDs []string `json:"ids"`
}

// DeleteResponse confirms a library deletion.
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// LibraryHealth mirrors library diagnostics.
type LibraryHealth struct {
	Driver        string `json:"driver"`
	Target        string `json:"target"`
	Reachable     bool   `json:"reachable"`
	SchemaVersion int    `json:"schemaVersion"`
	Videos        int    `json:"videos"`
	Drafts        int    `json:"drafts"`
	Error         string `json:"error,omitempty"`
}

// CheckResult is one preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	SocketPath   string        `json:"socketPath"`
	LockFilePath string        `json:"lockFilePath"`
	LogPath      string        `json:"logPath"`
	APIAddress   string        `json:"apiAddress,omitempty"`
	HandoffMode  string        `json:"handoffMode"`
	Archive      bool          `json:"archive"`
	Library      LibraryHealth `json:"library"`
	Session      Session       `json:"session"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
