// Package daemon coordinates the long-running clipstudio process.
//
// It ties configuration, the video library, the studio controller, and the
// optional HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. On start the controller recovers the last saved draft so
// clips survive a restart. The daemon exposes session actions, library reads,
// health summaries, and the test notification used by the CLI.
//
// Keep orchestration logic here: the authoring state machine lives in
// internal/studio while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
