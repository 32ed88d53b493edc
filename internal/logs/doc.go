// Package logs reads the daemon's JSON log file for the `clipstudio logs`
// command: the last N lines, incremental reads from a byte offset, and a
// follow loop that survives log rotation. Filter narrows records by level,
// component, or session id.
package logs
