package revert

import (
	"context"

	"github.com/sokinpui/vibedoctor/cli"
	"github.com/sokinpui/vibedoctor/internal/fs"
	"github.com/sokinpui/vibedoctor/model"
)

// Config holds the configuration for using vibedoctor as a library.
type Config struct {
	// LogRoot is the directory holding one subdirectory per project with
	// JSONL streams. Defaults to ~/.claude/projects.
	LogRoot string
	// Tail is how many trailing entries per stream are searched.
	Tail int
	// LookupDirs resolve relative paths found in transcripts.
	LookupDirs []string
	// DryRun computes the reversal without writing any file.
	DryRun bool
	// Store overrides where files are read and written.
	Store fs.Store
}

// Run performs one revert request and returns the report text together with
// the structured summary. The error is non-nil only when the request failed
// outright; its message is also part of the report.
func Run(ctx context.Context, config Config, req Request) (string, model.Summary, error) {
	engine := New(config.cliConfig(), config.Store)
	summary := engine.Revert(ctx, req)
	var err error
	if summary.Status == model.StatusFailed {
		err = summary.Err
	}
	return Report(summary), summary, err
}

func (c Config) cliConfig() *cli.Config {
	cfg := &cli.Config{
		LogRoot:    c.LogRoot,
		Tail:       c.Tail,
		LookupDirs: c.LookupDirs,
		DryRun:     c.DryRun,
	}
	if cfg.LogRoot == "" {
		cfg.LogRoot = cli.DefaultLogRoot()
	}
	return cfg
}
