package ipc

import "clipstudio/internal/api"

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse mirrors the HTTP API daemon status for IPC callers.
type StatusResponse = api.DaemonStatus

// Session mirrors the HTTP API session DTO.
type Session = api.Session

// Video mirrors the HTTP API video DTO.
type Video = api.Video

// CheckResult mirrors the HTTP API preflight DTO.
type CheckResult = api.CheckResult

// SessionRequest fetches the current session.
type SessionRequest struct{}

// ActionRequest runs one studio action. Prompt is read by submit only.
type ActionRequest struct {
	Action string `json:"action"`
	Prompt string `json:"prompt,omitempty"`
}

// WaitRequest blocks until no work is in flight. A zero timeout uses the
// server default.
type WaitRequest struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SessionResponse carries the session after a read, action, or wait. Action
// rejections are reported through Error and ErrorKind so callers can classify
// them; transport failures use the RPC error.
type SessionResponse struct {
	Session   Session `json:"session"`
	Error     string  `json:"error,omitempty"`
	ErrorKind string  `json:"error_kind,omitempty"`
}

// LibraryListRequest filters library listing.
type LibraryListRequest struct {
	Limit     int    `json:"limit"`
	SessionID string `json:"session_id,omitempty"`
}

// LibraryListResponse contains library entries, newest first.
type LibraryListResponse struct {
	Videos []Video `json:"videos"`
}

// LibraryShowRequest fetches a single video by id.
type LibraryShowRequest struct {
	ID string `json:"id"`
}

// LibraryShowResponse contains the requested video.
type LibraryShowResponse struct {
	Video     Video  `json:"video"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// LibraryDeleteRequest removes a video by id.
type LibraryDeleteRequest struct {
	ID string `json:"id"`
}

// LibraryDeleteResponse reports whether the video was removed.
type LibraryDeleteResponse struct {
	Deleted   bool   `json:"deleted"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// LibraryCompileRequest stitches library videos in the order listed.
type LibraryCompileRequest struct {
	IDs []string `json:"ids"`
}

// PreflightRequest runs the environment checks inside the daemon.
type PreflightRequest struct{}

// PreflightResponse lists check outcomes.
type PreflightResponse struct {
	Results []CheckResult `json:"results"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse indicates notification send result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
