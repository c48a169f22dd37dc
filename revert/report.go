package revert

import (
	"fmt"
	"strings"

	"github.com/sokinpui/vibedoctor/internal/marker"
	"github.com/sokinpui/vibedoctor/model"
)

// Report renders a summary as the text returned to the caller. Successful
// and partial runs end with the change tag so that the assistant repeats it
// and later requests can skip what this one reverted.
func Report(s model.Summary) string {
	switch s.Status {
	case model.StatusNotFound:
		return fmt.Sprintf("❌ Could not find a session containing message: %q\n\n"+
			"Make sure you're running this from the same session where you made the changes.", s.Search)
	case model.StatusEmptyPlan:
		return emptyPlanReport(s)
	case model.StatusFailed:
		msg := "unknown error"
		if s.Err != nil {
			msg = s.Err.Error()
		}
		return fmt.Sprintf("❌ VibeDoctor error: %s\n\n"+
			"Please ensure:\n"+
			"- You're in an assistant session\n"+
			"- The assistant has made recent file changes\n"+
			"- The conversation JSONL files are accessible", msg)
	}

	var b strings.Builder
	n := len(s.Plan.Selected)
	tag := marker.Format(n)

	switch s.Status {
	case model.StatusPreview:
		fmt.Fprintf(&b, "🔍 Dry run: would revert last %d %s. No files were written.\n", n, plural(n))
	case model.StatusPartial:
		fmt.Fprintf(&b, "⚠️ Reverted %d of %d %s; %d failed. %s\n", s.Succeeded(), n, plural(n), n-s.Succeeded(), tag)
	default:
		fmt.Fprintf(&b, "✅ Successfully reverted last %d %s. %s\n", n, plural(n), tag)
	}

	b.WriteString("\n")
	writeSource(&b, s)

	b.WriteString("\nOperations:\n")
	for _, o := range s.Outcomes {
		if o.OK() {
			fmt.Fprintf(&b, "✅ %s\n", o.Message)
		} else {
			fmt.Fprintf(&b, "❌ Error processing %s: %v\n", o.Record.FilePath, o.Err)
		}
		if o.Diff != "" {
			fmt.Fprintf(&b, "```diff\n%s```\n", o.Diff)
		}
	}

	if s.Status == model.StatusPreview {
		return strings.TrimRight(b.String(), "\n")
	}
	fmt.Fprintf(&b, "\n**Important:** Please include this tag in your response: %s", tag)
	return b.String()
}

func emptyPlanReport(s model.Summary) string {
	var b strings.Builder
	switch {
	case s.Mode == ModeTranscript && s.Plan.Available == 0:
		b.WriteString("❌ No Update operations found in the transcript.")
	case s.Mode == ModeTranscript:
		b.WriteString("❌ No changes found to revert in the transcript.")
	case s.Session != nil:
		fmt.Fprintf(&b, "❌ No changes found to revert in session %s.", s.Session.StreamID)
	default:
		b.WriteString("❌ No changes found to revert.")
	}
	if s.Plan.AlreadyReverted > 0 {
		fmt.Fprintf(&b, "\n\n%d of %d %s already reverted in this conversation.",
			min(s.Plan.AlreadyReverted, s.Plan.Available), s.Plan.Available, plural(s.Plan.Available))
	} else if s.Mode != ModeTranscript {
		b.WriteString("\n\nMake sure the assistant has made file modifications in this session.")
	}
	return b.String()
}

func writeSource(b *strings.Builder, s model.Summary) {
	if s.Session != nil {
		fmt.Fprintf(b, "Session: %s\n", s.Session.StreamID)
		fmt.Fprintf(b, "Working Directory: %s\n", s.Session.WorkingDirectory)
		return
	}
	if s.Mode == ModeTranscript {
		b.WriteString("Source: pasted transcript\n")
	}
}

func plural(n int) string {
	if n == 1 {
		return "change"
	}
	return "changes"
}

// ExitCode maps a summary to a process exit status: 0 when the request was
// served, 1 when it failed or found no session, 2 when only some records
// were reverted.
func ExitCode(s model.Summary) int {
	switch s.Status {
	case model.StatusFailed, model.StatusNotFound:
		return 1
	case model.StatusPartial:
		return 2
	}
	return 0
}
