package planner

import (
	"sort"

	"github.com/sokinpui/vibedoctor/model"
)

// Sort orders records newest first. Equal keys fall back to file path so the
// order never depends on map or directory iteration.
func Sort(records []model.MutationRecord) []model.MutationRecord {
	sorted := make([]model.MutationRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Key.Compare(sorted[j].Key); c != 0 {
			return c > 0
		}
		return sorted[i].FilePath < sorted[j].FilePath
	})
	return sorted
}

// Plan skips the alreadyReverted newest records and selects the next
// requestedCount. An offset past the end yields an empty selection.
func Plan(records []model.MutationRecord, alreadyReverted, requestedCount int) model.RevertPlan {
	if alreadyReverted < 0 {
		alreadyReverted = 0
	}
	if requestedCount < 0 {
		requestedCount = 0
	}

	plan := model.RevertPlan{
		AlreadyReverted: alreadyReverted,
		RequestedCount:  requestedCount,
		Available:       len(records),
	}
	if alreadyReverted >= len(records) {
		return plan
	}

	sorted := Sort(records)
	end := alreadyReverted + requestedCount
	if end > len(sorted) || end < alreadyReverted {
		end = len(sorted)
	}
	plan.Selected = sorted[alreadyReverted:end]
	return plan
}
