package model

import (
	"strings"
	"time"
)

// Kind identifies how a recorded edit is reversed.
type Kind int

const (
	// Replace swaps the current text (Before) back to the prior text (After).
	Replace Kind = iota
	// CreateEmpty empties a file the assistant created.
	CreateEmpty
	// LineEdits deletes added lines and restores removed lines by line number.
	LineEdits
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case CreateEmpty:
		return "empty"
	case LineEdits:
		return "lines"
	default:
		return "unknown"
	}
}

// SequenceKey orders records. Time is set by the structured log, Position by
// the transcript; the other field is left zero.
type SequenceKey struct {
	Time     time.Time
	Position int
}

// Compare returns -1, 0 or 1 as k is older than, equal to, or newer than o.
func (k SequenceKey) Compare(o SequenceKey) int {
	if c := k.Time.Compare(o.Time); c != 0 {
		return c
	}
	switch {
	case k.Position < o.Position:
		return -1
	case k.Position > o.Position:
		return 1
	}
	return 0
}

// LineOpKind is the direction of a single line sub-operation.
type LineOpKind int

const (
	// DeleteLine removes a line the edit added.
	DeleteLine LineOpKind = iota
	// RestoreLine re-inserts a line the edit removed.
	RestoreLine
)

// LineOp is one numbered line taken from a transcript diff block.
// Line is 1-based.
type LineOp struct {
	Kind LineOpKind
	Line int
	Text string
}

// MutationRecord describes one past file edit, enough to invert it.
type MutationRecord struct {
	Kind     Kind
	FilePath string
	// Before is the text currently on disk, After the text to put back.
	Before string
	After  string
	Lines  []LineOp
	Key    SequenceKey
}

// Valid reports whether the record carries the fields its kind needs.
func (r MutationRecord) Valid() bool {
	if strings.TrimSpace(r.FilePath) == "" {
		return false
	}
	switch r.Kind {
	case Replace:
		return r.Before != "" && len(r.Lines) == 0
	case CreateEmpty:
		return r.Before == "" && r.After == "" && len(r.Lines) == 0
	case LineEdits:
		return len(r.Lines) > 0
	}
	return false
}

// Session is the log stream located for the current conversation.
type Session struct {
	StreamID         string
	Path             string
	WorkingDirectory string
	MatchedTimestamp time.Time
}

// RevertPlan is the slice of records chosen for one request.
type RevertPlan struct {
	AlreadyReverted int
	RequestedCount  int
	Available       int
	Selected        []MutationRecord
}

// Empty reports whether there is nothing left to revert.
func (p RevertPlan) Empty() bool {
	return len(p.Selected) == 0
}

// Outcome is the result of reversing one record.
type Outcome struct {
	Record  MutationRecord
	Err     error
	Message string
	// Diff is filled in dry-run mode.
	Diff string
}

// OK reports whether the reversal succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Status classifies a finished request.
type Status int

const (
	StatusReverted Status = iota
	StatusPartial
	StatusPreview
	StatusNotFound
	StatusEmptyPlan
	StatusFailed
)

// Summary holds the results of a revert request for display.
type Summary struct {
	Status   Status
	Mode     string
	Session  *Session
	Plan     RevertPlan
	Outcomes []Outcome
	Search   string
	Err      error
}

// Succeeded counts the outcomes that reverted cleanly.
func (s Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}
