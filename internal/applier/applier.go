// Package applier performs the file writes that undo selected records.
package applier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sokinpui/vibedoctor/internal/fs"
	"github.com/sokinpui/vibedoctor/internal/patcher"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
)

// ErrContentMissing means the text to replace is no longer in the file.
var ErrContentMissing = errors.New("expected content not found (already reverted or changed since)")

// Applier reverses records through a file store.
type Applier struct {
	store  fs.Store
	dryRun bool
}

// New creates an Applier. A nil store writes to disk directly. In dry-run
// mode nothing is written and each outcome carries a unified diff instead.
func New(store fs.Store, dryRun bool) *Applier {
	if store == nil {
		store = fs.DiskStore{}
	}
	return &Applier{store: store, dryRun: dryRun}
}

// Apply reverses records in the given order and returns one outcome per
// record. A failure is recorded and the next record is still processed;
// earlier successes are not rolled back.
func (a *Applier) Apply(records []model.MutationRecord) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(records))
	for _, record := range records {
		outcome := a.applyOne(record)
		if outcome.OK() {
			ui.Debug("reverted %s (%s)", record.FilePath, record.Kind)
		} else {
			ui.Debug("failed to revert %s: %v", record.FilePath, outcome.Err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (a *Applier) applyOne(record model.MutationRecord) (outcome model.Outcome) {
	outcome = model.Outcome{Record: record}
	// A panic fails this record only; the rest of the batch still runs.
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("internal error: %v", r)
			outcome.Message = ""
			outcome.Diff = ""
		}
	}()
	if !record.Valid() {
		outcome.Err = fmt.Errorf("incomplete %s record", record.Kind)
		return outcome
	}

	var current string
	data, err := a.store.ReadFile(record.FilePath)
	switch {
	case err == nil:
		current = string(data)
	case record.Kind == model.CreateEmpty:
		// Emptying does not depend on what the file holds now.
	default:
		outcome.Err = fmt.Errorf("could not read file: %w", err)
		return outcome
	}

	var next string
	switch record.Kind {
	case model.Replace:
		idx := strings.Index(current, record.Before)
		if idx == -1 {
			outcome.Err = ErrContentMissing
			return outcome
		}
		// Only the first occurrence is swapped back, even if Before repeats.
		next = current[:idx] + record.After + current[idx+len(record.Before):]
		outcome.Message = "Replaced content in " + record.FilePath

	case model.CreateEmpty:
		next = ""
		outcome.Message = "Emptied " + record.FilePath + " (reverted file creation)"

	case model.LineEdits:
		result, err := patcher.Apply(current, record.Lines)
		if err != nil {
			outcome.Err = err
			return outcome
		}
		next = result.Content
		outcome.Message = fmt.Sprintf("Restored %d line(s) in %s", len(record.Lines), record.FilePath)
		if result.Shift != 0 {
			outcome.Message += fmt.Sprintf(" (edit found %+d lines from its recorded position)", result.Shift)
		}
	}

	if a.dryRun {
		outcome.Diff = unifiedDiff(record.FilePath, current, next)
		outcome.Message = "Would revert: " + outcome.Message
		return outcome
	}

	if err := a.store.WriteFile(record.FilePath, []byte(next)); err != nil {
		outcome.Err = fmt.Errorf("could not write file: %w", err)
		outcome.Message = ""
	}
	return outcome
}

func unifiedDiff(path, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a" + path,
		ToFile:   "b" + path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
