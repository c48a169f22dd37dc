package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sokinpui/vibedoctor/model"
)

type stubExecutor struct {
	summary model.Summary
	err     error
}

func (s stubExecutor) Execute(context.Context) (model.Summary, error) {
	return s.summary, s.err
}

func run(t *testing.T, exec Executor) Model {
	t.Helper()
	m := New(context.Background(), exec)
	next, _ := m.Update(m.runApp())
	return next.(Model)
}

func TestViewRendersReport(t *testing.T) {
	record := model.MutationRecord{Kind: model.Replace, FilePath: "/w/a.go", Before: "x", After: "y"}
	summary := model.Summary{
		Status:   model.StatusReverted,
		Mode:     "session",
		Session:  &model.Session{StreamID: "s1", WorkingDirectory: "/w"},
		Plan:     model.RevertPlan{Selected: []model.MutationRecord{record}},
		Outcomes: []model.Outcome{{Record: record, Message: "Replaced content in /w/a.go"}},
	}

	m := run(t, stubExecutor{summary: summary})
	view := m.View()
	for _, want := range []string{"Successfully reverted last 1 change", "Replaced content in /w/a.go", "[VIBEDOCTOR CHANGES: 1]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
	if code := m.ExitCode(); code != 0 {
		t.Errorf("ExitCode() = %d, want 0", code)
	}
}

func TestViewRendersFailedSummary(t *testing.T) {
	err := errors.New("log root not found")
	summary := model.Summary{Status: model.StatusFailed, Err: err}

	m := run(t, stubExecutor{summary: summary, err: err})
	if view := m.View(); !strings.Contains(view, "VibeDoctor error: log root not found") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if code := m.ExitCode(); code != 1 {
		t.Errorf("ExitCode() = %d, want 1", code)
	}
}

func TestViewRendersError(t *testing.T) {
	m := run(t, stubExecutor{err: errors.New("failed to read from clipboard")})
	if view := m.View(); !strings.Contains(view, "failed to read from clipboard") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if code := m.ExitCode(); code != 1 {
		t.Errorf("ExitCode() = %d, want 1", code)
	}
}

func TestProcessingView(t *testing.T) {
	m := New(context.Background(), stubExecutor{})
	if view := m.View(); !strings.Contains(view, "Reverting...") {
		t.Errorf("unexpected view: %q", view)
	}
	if code := m.ExitCode(); code != 1 {
		t.Errorf("quitting early should fail, got %d", code)
	}
}
