package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/vibedoctor/internal/ui"
)

// SourceProvider retrieves a pasted transcript.
type SourceProvider struct {
	stdin *os.File
}

// New creates a new SourceProvider reading from the process stdin.
func New() *SourceProvider {
	return &SourceProvider{stdin: os.Stdin}
}

// GetContent retrieves content from stdin (if piped) or the clipboard. An
// empty clipboard is not an error.
func (sp *SourceProvider) GetContent() (string, error) {
	if sp.isPiped() {
		ui.Header("--- Reading transcript from stdin ---")
		return ReadAll(sp.stdin)
	}

	ui.Header("--- Reading transcript from clipboard ---")
	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}

func (sp *SourceProvider) isPiped() bool {
	if sp.stdin == nil {
		return false
	}
	stat, err := sp.stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// ReadAll reads a whole transcript from r.
func ReadAll(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(content), nil
}
