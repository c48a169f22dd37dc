package planner

import (
	"testing"
	"time"

	"github.com/sokinpui/vibedoctor/model"
)

func at(sec int) model.SequenceKey {
	return model.SequenceKey{Time: time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC)}
}

func replace(path string, key model.SequenceKey) model.MutationRecord {
	return model.MutationRecord{Kind: model.Replace, FilePath: path, Before: "new", After: "old", Key: key}
}

func TestPlanSelectsNewestFirst(t *testing.T) {
	records := []model.MutationRecord{
		replace("/a", at(1)),
		replace("/b", at(2)),
		replace("/a", at(3)),
	}

	plan := Plan(records, 0, 2)
	if len(plan.Selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(plan.Selected))
	}
	if plan.Selected[0].Key != at(3) || plan.Selected[0].FilePath != "/a" {
		t.Errorf("first selected = %+v, want t3 on /a", plan.Selected[0])
	}
	if plan.Selected[1].Key != at(2) || plan.Selected[1].FilePath != "/b" {
		t.Errorf("second selected = %+v, want t2 on /b", plan.Selected[1])
	}
}

func TestPlanSkipsAlreadyReverted(t *testing.T) {
	records := []model.MutationRecord{
		replace("/a", at(1)),
		replace("/b", at(2)),
		replace("/a", at(3)),
	}

	plan := Plan(records, 2, 1)
	if len(plan.Selected) != 1 {
		t.Fatalf("expected 1 selected, got %d", len(plan.Selected))
	}
	if plan.Selected[0].Key != at(1) {
		t.Errorf("selected %+v, want the oldest record", plan.Selected[0])
	}
}

func TestPlanEmptyWhenOffsetExhausted(t *testing.T) {
	records := []model.MutationRecord{replace("/a", at(1))}
	for _, offset := range []int{1, 2, 50} {
		plan := Plan(records, offset, 3)
		if !plan.Empty() {
			t.Errorf("offset %d: expected empty plan, got %d records", offset, len(plan.Selected))
		}
		if plan.Available != 1 {
			t.Errorf("offset %d: Available = %d, want 1", offset, plan.Available)
		}
	}
}

func TestPlanSizeProperty(t *testing.T) {
	var records []model.MutationRecord
	for i := 0; i < 7; i++ {
		records = append(records, replace("/f", at(i)))
	}

	for offset := 0; offset <= 9; offset++ {
		for n := 0; n <= 10; n++ {
			want := len(records) - offset
			if want < 0 {
				want = 0
			}
			if n < want {
				want = n
			}
			if got := len(Plan(records, offset, n).Selected); got != want {
				t.Errorf("Plan(offset=%d, n=%d) selected %d, want %d", offset, n, got, want)
			}
		}
	}
}

func TestSortTieBreaksOnPath(t *testing.T) {
	records := []model.MutationRecord{
		replace("/z", at(5)),
		replace("/a", at(5)),
		replace("/m", at(9)),
	}

	sorted := Sort(records)
	want := []string{"/m", "/a", "/z"}
	for i, path := range want {
		if sorted[i].FilePath != path {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].FilePath, path)
		}
	}
	if records[0].FilePath != "/z" {
		t.Error("Sort must not reorder its input")
	}
}

func TestSortByTranscriptPosition(t *testing.T) {
	records := []model.MutationRecord{
		{Kind: model.CreateEmpty, FilePath: "/x", Key: model.SequenceKey{Position: 0}},
		{Kind: model.CreateEmpty, FilePath: "/y", Key: model.SequenceKey{Position: 1}},
	}
	if got := Sort(records)[0].FilePath; got != "/y" {
		t.Errorf("newest transcript block should come first, got %s", got)
	}
}
