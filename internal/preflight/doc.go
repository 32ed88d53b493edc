// Package preflight provides readiness checks for external services
// and filesystem paths that clipstudio depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check as a
//     warning; it still starts so the operator can fix the problem live.
//   - The CLI "clipstudio check" command prints every result.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
