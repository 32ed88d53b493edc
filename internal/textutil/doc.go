// Package textutil provides small text helpers shared by the studio, the
// library, and the CLI: prompt-derived titles, object-key-safe tokens, and
// human-readable labels for machine identifiers.
package textutil
