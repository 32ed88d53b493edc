package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a log directory and the glob its rotated files match.
// Paths in Exclude are never removed, typically the live daemon log.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs deletes rotated log files last written more than
// retentionDays ago and returns how many were removed. Zero or negative
// retention keeps everything. Failures are logged and the sweep continues.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 || len(targets) == 0 {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	keep := protectedPaths(targets)

	removed := 0
	for _, target := range targets {
		for _, path := range target.expired(cutoff, keep) {
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "could not prune old log", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check ownership of paths.log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("pruned old log", String("path", path), String(FieldEventType, "log_pruned"))
			}
		}
	}
	if removed > 0 && logger != nil {
		logger.Info("log retention sweep complete",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_retention_complete"),
		)
	}
	return removed
}

// expired lists files in the target directory matching its pattern whose
// modification time precedes cutoff. Unreadable directories yield nothing.
func (t RetentionTarget) expired(cutoff time.Time, keep map[string]bool) []string {
	dir := strings.TrimSpace(t.Dir)
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	pattern := strings.TrimSpace(t.Pattern)

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
				continue
			}
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if keep[path] {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func protectedPaths(targets []RetentionTarget) map[string]bool {
	keep := make(map[string]bool)
	for _, target := range targets {
		for _, p := range target.Exclude {
			if p = strings.TrimSpace(p); p != "" {
				keep[absPath(p)] = true
			}
		}
	}
	return keep
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
