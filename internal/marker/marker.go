// Package marker reads and writes the completion tag that carries how many
// changes a previous revert call undid.
package marker

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Tag is the fixed label inside the marker, e.g. "[VIBEDOCTOR CHANGES: 2]".
const Tag = "VIBEDOCTOR CHANGES"

var markerRegex = regexp.MustCompile(`\[` + regexp.QuoteMeta(Tag) + `:\s*(\d+)\s*\]`)

// Format renders the marker for n reverted changes.
func Format(n int) string {
	return fmt.Sprintf("[%s: %d]", Tag, n)
}

// AlreadyReverted sums the counts of every marker found in the conversation
// text. Text without markers, or with unparsable counts, contributes zero.
// The sum saturates at math.MaxInt.
func AlreadyReverted(conversation string) int {
	total := 0
	for _, match := range markerRegex.FindAllStringSubmatch(conversation, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 0 {
			continue
		}
		if n > math.MaxInt-total {
			return math.MaxInt
		}
		total += n
	}
	return total
}

// Count returns how many markers appear in the text.
func Count(conversation string) int {
	return len(markerRegex.FindAllStringIndex(conversation, -1))
}
