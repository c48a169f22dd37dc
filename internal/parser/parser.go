// Package parser turns a pasted terminal transcript of an assistant's file
// edits into mutation records.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sokinpui/vibedoctor/internal/fs"
	"github.com/sokinpui/vibedoctor/internal/patcher"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
)

var (
	// headerRegex matches a tool header such as "⏺ Update(src/app.go)".
	headerRegex = regexp.MustCompile(`(?m)^[ \t]*(?:[⏺●•][ \t]*)?(Update|Edit|Write)\(([^)\n]*)\)[ \t]*\r?$`)

	// numberedLineRegex matches a diff row: line number, one space, then a
	// marker slot holding '+', '-' or a space, then the line text.
	numberedLineRegex = regexp.MustCompile(`^[ \t]*(?:⎿[ \t]*)?(\d+)(?: ([+\- ]) ?(.*))?$`)

	// wroteRegex confirms that a Write block created a file.
	wroteRegex = regexp.MustCompile(`(?m)Wrote \d+ lines? to`)
)

// Block is one tool header and the text up to the next header.
type Block struct {
	Tool     string
	FilePath string
	Body     string
	Position int
}

// Adapter extracts records from raw transcript text.
type Adapter struct {
	resolver *fs.PathResolver
}

// New creates a transcript adapter. Relative paths are resolved with resolver.
func New(resolver *fs.PathResolver) *Adapter {
	return &Adapter{resolver: resolver}
}

// Extract parses the transcript and returns one record per usable block, in
// transcript order. Unusable blocks are skipped.
func (a *Adapter) Extract(transcript string) ([]model.MutationRecord, error) {
	var records []model.MutationRecord
	for _, block := range SplitBlocks(Unwrap(transcript)) {
		record, ok := ParseBlock(block)
		if !ok {
			ui.Debug("skipped %s block %d (%q): no usable lines", block.Tool, block.Position, block.FilePath)
			continue
		}
		if a.resolver != nil {
			record.FilePath = a.resolver.Resolve(record.FilePath)
		}
		records = append(records, record)
	}
	return records, nil
}

// Unwrap returns the contents of the fenced code blocks that hold tool
// headers, so a transcript pasted inside markdown fences parses like a raw
// one. Text with no such fences is returned unchanged.
func Unwrap(transcript string) string {
	if !strings.Contains(transcript, "```") && !strings.Contains(transcript, "~~~") {
		return transcript
	}
	blocks, err := ExtractCodeBlocks([]byte(transcript))
	if err != nil {
		return transcript
	}

	var parts []string
	for _, block := range blocks {
		if headerRegex.MatchString(block.Content) {
			parts = append(parts, block.Content)
		}
	}
	if len(parts) == 0 {
		return transcript
	}
	return strings.Join(parts, "\n")
}

// SplitBlocks cuts the transcript at every tool header.
func SplitBlocks(transcript string) []Block {
	matches := headerRegex.FindAllStringSubmatchIndex(transcript, -1)
	blocks := make([]Block, 0, len(matches))
	for i, m := range matches {
		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		blocks = append(blocks, Block{
			Tool:     transcript[m[2]:m[3]],
			FilePath: strings.TrimSpace(transcript[m[4]:m[5]]),
			Body:     transcript[m[1]:end],
			Position: i,
		})
	}
	return blocks
}

// ParseBlock converts one block into a record. Update blocks become LineEdits
// from their first contiguous run of numbered rows; Write blocks that report
// writing a file become CreateEmpty.
func ParseBlock(block Block) (model.MutationRecord, bool) {
	if block.FilePath == "" {
		return model.MutationRecord{}, false
	}
	key := model.SequenceKey{Position: block.Position}

	if block.Tool == "Write" {
		if !wroteRegex.MatchString(block.Body) {
			return model.MutationRecord{}, false
		}
		return model.MutationRecord{Kind: model.CreateEmpty, FilePath: block.FilePath, Key: key}, true
	}

	ops := parseNumberedRun(block.Body)
	if len(ops) == 0 {
		return model.MutationRecord{}, false
	}
	return model.MutationRecord{
		Kind:     model.LineEdits,
		FilePath: block.FilePath,
		Lines:    patcher.Order(ops),
		Key:      key,
	}, true
}

func parseNumberedRun(body string) []model.LineOp {
	var ops []model.LineOp
	inRun := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		m := numberedLineRegex.FindStringSubmatch(line)
		if m == nil {
			if inRun {
				break
			}
			continue
		}
		inRun = true

		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			continue
		}
		switch m[2] {
		case "+":
			ops = append(ops, model.LineOp{Kind: model.DeleteLine, Line: n, Text: m[3]})
		case "-":
			ops = append(ops, model.LineOp{Kind: model.RestoreLine, Line: n, Text: m[3]})
		}
	}
	return ops
}
