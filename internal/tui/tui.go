package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/vibedoctor/model"
	"github.com/sokinpui/vibedoctor/revert"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))           // Orange
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// Executor runs the revert configured on the command line.
type Executor interface {
	Execute(ctx context.Context) (model.Summary, error)
}

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// --- Model ---
type Model struct {
	ctx     context.Context
	app     Executor
	spinner spinner.Model
	state   state
	summary summaryMsg
	err     error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(ctx context.Context, app Executor) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		return fmt.Sprintf("%s Reverting...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error()) + "\n"
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

// ExitCode reports how the run ended. Quitting before the revert finished
// counts as a failure.
func (m Model) ExitCode() int {
	if m.state != stateSummary {
		return 1
	}
	return revert.ExitCode(m.summary.Summary)
}

func (m *Model) renderSummary() string {
	report := revert.Report(m.summary.Summary)
	lines := strings.Split(report, "\n")

	var b strings.Builder
	inDiff := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inDiff = !inDiff
			continue
		case inDiff:
			b.WriteString(diffLine(line))
		case i == 0:
			b.WriteString(titleStyle(m.summary.Status).Render(line))
		case strings.HasPrefix(line, "✅"):
			b.WriteString(successStyle.Render(line))
		case strings.HasPrefix(line, "❌"):
			b.WriteString(errorStyle.Render(line))
		case strings.HasPrefix(line, "**Important:**"):
			b.WriteString(faintStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func titleStyle(status model.Status) lipgloss.Style {
	switch status {
	case model.StatusReverted:
		return successStyle.Bold(true)
	case model.StatusPartial:
		return warningStyle.Bold(true)
	case model.StatusPreview:
		return headerStyle
	default:
		return errorStyle.Bold(true)
	}
}

func diffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return faintStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return successStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return errorStyle.Render(line)
	case strings.HasPrefix(line, "@@"):
		return headerStyle.Render(line)
	}
	return line
}

func (m *Model) runApp() tea.Msg {
	summary, err := m.app.Execute(m.ctx)
	if err != nil {
		// Check for detailed error to print stack
		var detailed *revert.DetailedError
		if errors.As(err, &detailed) && len(detailed.Stack) > 0 {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		if summary.Status == model.StatusFailed {
			return summaryMsg{Summary: summary}
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
