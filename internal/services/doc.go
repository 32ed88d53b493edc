// Package services defines shared utilities consumed by the studio orchestrator
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp authoring session IDs, generation job IDs, and
//     correlation identifiers for logging.
//   - Sentinel error markers plus the Wrap helper that tag failures with the
//     taxonomy the orchestrator uses to decide between the Failed state and a
//     non-fatal flag.
//
// The HTTP clients for the generation and stitching services live in the
// generation and stitch subpackages.
package services
