// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates studio snapshots and library records into
// transport-friendly DTOs that the CLI and other consumers can render without
// coupling to internal types.
//
// # Key Types
//
// Session: the authoring session with its clips, newest preview, in-flight job,
// pending-merge flag, last error, and the actions currently accepted.
//
// Video: a finalized library entry.
//
// DaemonStatus: aggregated runtime information including library health.
//
// # Services
//
// SessionService forwards actions to the studio controller and renders the
// resulting snapshot. LibraryService reads finalized videos.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Phases and
// actions are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds. Errors carry a stable kind string so clients can branch
// without parsing messages.
package api
