package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"reelfetch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("Ledger directory", filepath.Dir(cfg.Paths.LedgerPath)),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSameFilesystem("Scratch/cache filesystem", cfg.Paths.ScratchDir, cfg.Paths.CacheDir),
	}

	if cookies := strings.TrimSpace(cfg.YouTube.CookiesFile); cookies != "" {
		results = append(results, CheckFileReadable("YouTube cookies", cookies))
	}

	results = append(results, CheckSystemDeps(ctx, cfg)...)
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
