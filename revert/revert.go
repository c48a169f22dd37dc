// Package revert reconstructs and undoes an assistant's recent file edits
// from its activity log or a pasted transcript.
package revert

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/sokinpui/vibedoctor/cli"
	"github.com/sokinpui/vibedoctor/internal/applier"
	"github.com/sokinpui/vibedoctor/internal/fs"
	"github.com/sokinpui/vibedoctor/internal/jsonl"
	"github.com/sokinpui/vibedoctor/internal/marker"
	"github.com/sokinpui/vibedoctor/internal/parser"
	"github.com/sokinpui/vibedoctor/internal/planner"
	"github.com/sokinpui/vibedoctor/internal/session"
	"github.com/sokinpui/vibedoctor/internal/source"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
)

const (
	ModeSession    = "session"
	ModeTranscript = "transcript"
)

// LogAdapter turns one log source into mutation records in log order. For
// the structured log the source is a stream path; for a transcript it is the
// transcript text itself.
type LogAdapter interface {
	Extract(source string) ([]model.MutationRecord, error)
}

// Locator finds the log stream of the current conversation.
type Locator interface {
	Locate(search string) (model.Session, error)
}

// Request is one revert_last_changes call.
type Request struct {
	Count      int
	Search     string
	History    string
	Transcript string
	// UseTranscript selects the transcript adapter even when Transcript is
	// empty, which then reports that no edits were found.
	UseTranscript bool
}

// Engine orchestrates Locate -> Parse -> Plan -> Apply for each request.
type Engine struct {
	cfg            *cli.Config
	locator        Locator
	structured     LogAdapter
	transcript     LogAdapter
	applier        *applier.Applier
	sourceProvider *source.SourceProvider
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates an Engine from cfg. A nil store writes to disk.
func New(cfg *cli.Config, store fs.Store) *Engine {
	return &Engine{
		cfg:            cfg,
		locator:        session.NewLocator(cfg.LogRoot, cfg.Tail),
		structured:     jsonl.New(),
		transcript:     parser.New(fs.NewPathResolver(cfg.LookupDirs)),
		applier:        applier.New(store, cfg.DryRun),
		sourceProvider: source.New(),
	}
}

// Execute runs one revert from the command-line configuration, reading the
// transcript from stdin or the clipboard in transcript mode.
func (e *Engine) Execute(ctx context.Context) (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	req := Request{
		Count:         e.cfg.Count,
		Search:        e.cfg.Message,
		History:       e.cfg.History,
		UseTranscript: e.cfg.Transcript,
	}
	if e.cfg.Transcript {
		content, err := e.sourceProvider.GetContent()
		if err != nil {
			return model.Summary{}, err
		}
		req.Transcript = content
	}

	summary = e.Revert(ctx, req)
	if summary.Status == model.StatusFailed {
		return summary, summary.Err
	}
	return summary, nil
}

// Run serves one request and renders the report. It never fails: every
// error, including a panic, becomes report text.
func (e *Engine) Run(ctx context.Context, req Request) string {
	return Report(e.Revert(ctx, req))
}

// Revert serves one request. Not-found and nothing-to-revert are statuses,
// not errors; only unexpected failures set StatusFailed.
func (e *Engine) Revert(ctx context.Context, req Request) (summary model.Summary) {
	defer func() {
		if r := recover(); r != nil {
			summary.Status = model.StatusFailed
			summary.Err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	req.Count = cli.ClampCount(req.Count)
	if strings.TrimSpace(req.Search) == "" {
		req.Search = cli.DefaultMessage
	}
	summary.Search = req.Search

	records, status, err := e.collect(req, &summary)
	if err != nil || status != model.StatusReverted {
		summary.Status = status
		summary.Err = err
		return summary
	}

	alreadyReverted := marker.AlreadyReverted(req.History)
	if alreadyReverted > 0 {
		ui.Info("Found %d previous revert tag(s) totaling %d change(s)", marker.Count(req.History), alreadyReverted)
	}
	summary.Plan = planner.Plan(records, alreadyReverted, req.Count)
	if summary.Plan.Empty() {
		summary.Status = model.StatusEmptyPlan
		return summary
	}
	ui.Info("Selected %d change(s) to revert (skipped %d already reverted)", len(summary.Plan.Selected), alreadyReverted)

	// Nothing has been written yet; a cancelled request stops here.
	if err := ctx.Err(); err != nil {
		summary.Status = model.StatusFailed
		summary.Err = err
		return summary
	}

	summary.Outcomes = e.applier.Apply(summary.Plan.Selected)
	switch {
	case e.cfg.DryRun:
		summary.Status = model.StatusPreview
	case summary.Succeeded() == len(summary.Outcomes):
		summary.Status = model.StatusReverted
	default:
		summary.Status = model.StatusPartial
	}
	return summary
}

// collect finds the records for the request. It returns StatusReverted to
// mean "continue".
func (e *Engine) collect(req Request, summary *model.Summary) ([]model.MutationRecord, model.Status, error) {
	if req.UseTranscript || req.Transcript != "" {
		summary.Mode = ModeTranscript
		records, err := e.transcript.Extract(req.Transcript)
		if err != nil {
			return nil, model.StatusFailed, fmt.Errorf("failed to parse transcript: %w", err)
		}
		if len(records) == 0 {
			return nil, model.StatusEmptyPlan, nil
		}
		return records, model.StatusReverted, nil
	}

	summary.Mode = ModeSession
	ui.Info("Looking for session with message: %q", req.Search)
	found, err := e.locator.Locate(req.Search)
	if errors.Is(err, session.ErrNotFound) {
		return nil, model.StatusNotFound, nil
	}
	if err != nil {
		return nil, model.StatusFailed, err
	}
	summary.Session = &found
	ui.Info("Found active session: %s in %s", found.StreamID, found.WorkingDirectory)

	records, err := e.structured.Extract(found.Path)
	if err != nil {
		return nil, model.StatusFailed, err
	}
	return records, model.StatusReverted, nil
}
