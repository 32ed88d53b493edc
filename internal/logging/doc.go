// Package logging assembles structured slog loggers and formatting helpers used
// across clipstudio.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so studio code can tag log lines
// with session ids, job ids, and correlation ids. The daemon logger writes the
// configured format to stdout and a JSON copy to the log directory.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// records with the same shape as the rest of the system.
package logging
