// Package studio orchestrates clip generation and automatic stitching for one
// authoring session.
//
// The package is split in two layers. Apply is a pure transition function over
// Model: it validates user actions, folds service results into the session,
// and returns the side effects (start a job, merge, persist, hand off) that
// the caller must run. Controller owns the single live Model, serializes every
// event through Apply, and runs effects in goroutines that report back only by
// dispatching further events.
//
// Every job and merge is tagged with a token. Results carrying a token that no
// longer matches the current state are dropped, so a poll tick that lands after
// the user moved on can never resurrect an abandoned job.
package studio
