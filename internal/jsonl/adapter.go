// Package jsonl turns a line-delimited assistant activity log into mutation
// records.
package jsonl

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
)

// Adapter extracts records from a JSON-lines log file.
type Adapter struct{}

// New creates a new structured log adapter.
func New() *Adapter {
	return &Adapter{}
}

// Extract reads the stream at path and returns its records in log order.
// Lines that are not valid JSON, or that describe no file edit, are skipped.
func (a *Adapter) Extract(path string) ([]model.MutationRecord, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}

	var records []model.MutationRecord
	for i, line := range lines {
		parsed := ParseEntry(line)
		if len(parsed) == 0 {
			continue
		}
		ui.Debug("line %d: %d change(s) in %s", i+1, len(parsed), parsed[0].FilePath)
		records = append(records, parsed...)
	}
	return records, nil
}

// ParseEntry converts one log line into zero or more records. A single-edit
// result yields one Replace, a multi-edit result one Replace per edit (last
// edit first), and an explicit creation one CreateEmpty.
func ParseEntry(line []byte) []model.MutationRecord {
	if !gjson.ValidBytes(line) {
		return nil
	}
	entry := gjson.ParseBytes(line)
	if entry.Get("type").String() != "user" {
		return nil
	}
	result := entry.Get("toolUseResult")
	if !result.IsObject() {
		return nil
	}

	filePath := result.Get("filePath").String()
	if filePath == "" {
		return nil
	}
	key := model.SequenceKey{Time: parseTimestamp(entry.Get("timestamp").String())}

	oldString := result.Get("oldString")
	newString := result.Get("newString")

	switch {
	case isString(oldString) && isString(newString):
		if newString.String() == "" {
			ui.Debug("skipped %s: edit left no text to locate", filePath)
			return nil
		}
		return []model.MutationRecord{{
			Kind:     model.Replace,
			FilePath: filePath,
			Before:   newString.String(),
			After:    oldString.String(),
			Key:      key,
		}}

	case result.Get("edits").IsArray() && !oldString.Exists():
		return parseEdits(filePath, result.Get("edits").Array(), key)

	case result.Get("type").String() == "create" && result.Get("content").String() != "" && !oldString.Exists():
		return []model.MutationRecord{{
			Kind:     model.CreateEmpty,
			FilePath: filePath,
			Key:      key,
		}}
	}

	ui.Debug("skipped %s: type=%q hasOld=%t hasNew=%t", filePath, result.Get("type").String(), oldString.Exists(), newString.Exists())
	return nil
}

func parseEdits(filePath string, edits []gjson.Result, key model.SequenceKey) []model.MutationRecord {
	var records []model.MutationRecord
	for i := len(edits) - 1; i >= 0; i-- {
		oldString := edits[i].Get("old_string")
		newString := edits[i].Get("new_string")
		if !isString(oldString) || !isString(newString) || newString.String() == "" {
			continue
		}
		records = append(records, model.MutationRecord{
			Kind:     model.Replace,
			FilePath: filePath,
			Before:   newString.String(),
			After:    oldString.String(),
			Key:      key,
		})
	}
	return records
}

func isString(r gjson.Result) bool {
	return r.Exists() && r.Type == gjson.String
}

// parseTimestamp returns the zero time for missing or malformed values, which
// sorts such entries as the oldest.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
