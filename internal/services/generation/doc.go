// Package generation wraps the text-to-video generation HTTP API.
//
// A job is created with Submit and then observed with Status until the
// service reports a terminal state. The client never retries; callers decide
// whether a failure is worth resubmitting.
package generation
