package preflight

import (
	"context"

	"lectern/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("State directory space", cfg.Paths.StateDir),
		CheckFeed("Feed file", cfg.Paths.FeedPath),
		CheckApprovalPolicy(cfg.Approvals.Policy),
	}

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.Capture.BaseURL != "" {
		results = append(results, CheckCaptureProvider(ctx, cfg.Capture.BaseURL, cfg.Capture.Token))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
