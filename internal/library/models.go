package library

import "time"

// StatusReady is the status of every newly recorded video.
const StatusReady = "ready"

// Video is one finalized library entry.
type Video struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	VideoURL    string    `json:"video_url"`
	PublicID    string    `json:"public_id"`
	Title       string    `json:"title"`
	Topic       string    `json:"topic"`
	Tone        string    `json:"tone"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ClipCount   int       `json:"clip_count"`
	ArchiveURL  string    `json:"archive_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft is the stored journal row for one authoring session.
type Draft struct {
	SessionID string
	Phase     string
	Payload   []byte
	UpdatedAt time.Time
}

// ListOptions filters List.
type ListOptions struct {
	Limit     int
	SessionID string
}

// Health reports library diagnostics.
type Health struct {
	Driver        string `json:"driver"`
	Target        string `json:"target"`
	Reachable     bool   `json:"reachable"`
	SchemaVersion int    `json:"schema_version"`
	Videos        int    `json:"videos"`
	Drafts        int    `json:"drafts"`
	Error         string `json:"error,omitempty"`
}
