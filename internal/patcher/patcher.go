// Package patcher reverses a line-numbered edit captured from a transcript.
package patcher

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sokinpui/vibedoctor/model"
)

var (
	// ErrMismatch means the file no longer holds the lines the edit added.
	ErrMismatch = errors.New("file content no longer matches the recorded edit")
	// ErrMalformed means the edit names the same line twice for one kind.
	ErrMalformed = errors.New("recorded edit lists a line more than once")
)

// Result is the reversed content plus how far the edit had drifted.
type Result struct {
	Content string
	Shift   int
}

// Order sorts ops into application order: deletions by descending line, then
// restorations by ascending line. Deleting bottom-up keeps lower line numbers
// valid. Restorations deliberately go top-down rather than bottom-up: each
// removed line is put back at its original number once every earlier line is
// in place, whereas bottom-up insertion would misplace a run of consecutive
// removed lines.
func Order(ops []model.LineOp) []model.LineOp {
	ordered := make([]model.LineOp, len(ops))
	copy(ordered, ops)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Kind != b.Kind {
			return a.Kind == model.DeleteLine
		}
		if a.Kind == model.DeleteLine {
			return a.Line > b.Line
		}
		return a.Line < b.Line
	})
	return ordered
}

// Apply reverses ops against content. Lines to delete must still match the
// recorded text; when they do not, the added lines are searched for elsewhere
// in the file and, if found exactly once, every op is shifted to follow them.
func Apply(content string, ops []model.LineOp) (Result, error) {
	lines := splitLines(content)
	ordered := Order(ops)
	if err := checkDuplicates(ordered); err != nil {
		return Result{}, err
	}

	shift := 0
	if err := checkDeletions(lines, ordered, 0); err != nil {
		var ok bool
		shift, ok = relocate(lines, ordered)
		if !ok {
			return Result{}, err
		}
		if err := checkDeletions(lines, ordered, shift); err != nil {
			return Result{}, err
		}
	}

	out := make([]string, len(lines))
	copy(out, lines)
	for _, op := range ordered {
		idx := op.Line - 1 + shift
		switch op.Kind {
		case model.DeleteLine:
			if idx < 0 || idx >= len(out) {
				return Result{}, fmt.Errorf("%w: line %d is past the end of the file", ErrMismatch, op.Line+shift)
			}
			out = append(out[:idx], out[idx+1:]...)
		case model.RestoreLine:
			if idx < 0 || idx > len(out) {
				return Result{}, fmt.Errorf("cannot restore line %d: file has %d lines", op.Line+shift, len(out))
			}
			out = append(out, "")
			copy(out[idx+1:], out[idx:])
			out[idx] = op.Text
		}
	}

	joined := strings.Join(out, "\n")
	if len(out) > 0 && (content == "" || strings.HasSuffix(content, "\n")) {
		joined += "\n"
	}
	return Result{Content: joined, Shift: shift}, nil
}

func checkDuplicates(ops []model.LineOp) error {
	seen := make(map[model.LineOp]bool, len(ops))
	for _, op := range ops {
		key := model.LineOp{Kind: op.Kind, Line: op.Line}
		if seen[key] {
			return fmt.Errorf("%w: line %d", ErrMalformed, op.Line)
		}
		seen[key] = true
	}
	return nil
}

func checkDeletions(lines []string, ops []model.LineOp, shift int) error {
	for _, op := range ops {
		if op.Kind != model.DeleteLine {
			continue
		}
		idx := op.Line - 1 + shift
		if idx < 0 || idx >= len(lines) {
			return fmt.Errorf("%w: line %d is past the end of the file", ErrMismatch, op.Line+shift)
		}
		if !sameLine(lines[idx], op.Text) {
			return fmt.Errorf("%w: line %d reads %q, expected %q", ErrMismatch, op.Line+shift, strings.TrimSpace(lines[idx]), strings.TrimSpace(op.Text))
		}
	}
	return nil
}

// relocate finds where the added lines now sit. It only works when they were
// one contiguous run.
func relocate(lines []string, ops []model.LineOp) (int, bool) {
	var added []model.LineOp
	for _, op := range ops {
		if op.Kind == model.DeleteLine {
			added = append(added, op)
		}
	}
	if len(added) == 0 {
		return 0, false
	}
	sort.Slice(added, func(i, j int) bool { return added[i].Line < added[j].Line })
	for i := 1; i < len(added); i++ {
		if added[i].Line != added[i-1].Line+1 {
			return 0, false
		}
	}

	block := make([]string, len(added))
	for i, op := range added {
		block[i] = op.Text
	}
	start := matchBlock(lines, block)
	if start == -1 {
		return 0, false
	}
	// matchBlock skips blank lines; anchor on the first non-blank added line.
	first := 0
	for first < len(added) && normalizeLineForMatching(added[first].Text) == "" {
		first++
	}
	if first == len(added) {
		return 0, false
	}
	return start - added[first].Line, true
}

func splitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
