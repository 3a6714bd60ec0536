package preflight

import (
	"context"

	"mintwatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir),
		CheckDirectoryAccess("Processed directory", cfg.Paths.ProcessedDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckStorage(ctx, cfg),
		CheckMinter(ctx, cfg),
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckEndpoint(ctx, "Notifications", cfg.Notifications.NtfyTopic, ""))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
