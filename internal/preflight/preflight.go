package preflight

import (
	"context"
	"strings"

	"clipstudio/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != cfg.Paths.StateDir {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckService(ctx, "Generation service", cfg.Generation.BaseURL, cfg.Generation.APIToken))
	if stitchUsesDistinctService(cfg) {
		results = append(results, CheckService(ctx, "Stitch service", cfg.Stitch.BaseURL, cfg.Stitch.APIToken))
	}

	results = append(results, CheckLibrary(ctx, cfg))

	if cfg.Handoff.Mode == config.HandoffModeAMQP {
		results = append(results, CheckBroker(ctx, cfg.Handoff.AMQPURL))
	}

	if cfg.Archive.Enabled {
		results = append(results, CheckArchiveConfig(cfg.Archive))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// stitchUsesDistinctService returns true when the stitch endpoint differs from
// the generation endpoint. When they're identical, the generation check
// already covers it.
func stitchUsesDistinctService(cfg *config.Config) bool {
	stitch := strings.TrimRight(strings.TrimSpace(cfg.Stitch.BaseURL), "/")
	gen := strings.TrimRight(strings.TrimSpace(cfg.Generation.BaseURL), "/")
	return stitch != "" && stitch != gen
}
