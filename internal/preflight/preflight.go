package preflight

import (
	"context"

	"filesort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional checks do not block an organize pass when they fail.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSourceDirectory("Source directory", cfg.Paths.SourceDir),
		CheckDestinationDirectory("Destination directory", cfg.Paths.DestinationDir),
	}

	if cfg.CaptionConfigured() {
		res := CheckCaptionEndpoint(ctx, cfg.Caption.BaseURL, cfg.Caption.APIKey)
		res.Optional = true
		results = append(results, res)
	}

	return results
}

// Blocking returns the failed results that must stop an organize pass.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
