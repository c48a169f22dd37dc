package patcher

import "strings"

// normalizeLineForMatching prepares a line for comparison by trimming whitespace
// and normalizing all internal whitespace sequences to a single space.
func normalizeLineForMatching(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// sameLine compares two lines ignoring whitespace differences.
func sameLine(a, b string) bool {
	return normalizeLineForMatching(a) == normalizeLineForMatching(b)
}

// matchBlock finds the 1-based line where `block` starts within `source`.
// Empty lines are skipped on both sides and whitespace is normalized, so the
// match survives re-indentation and blank-line churn. Returns -1 if absent or
// if the block occurs more than once.
func matchBlock(source, block []string) int {
	var normalizedBlock []string
	for _, line := range block {
		if n := normalizeLineForMatching(line); n != "" {
			normalizedBlock = append(normalizedBlock, n)
		}
	}
	if len(normalizedBlock) == 0 {
		return -1
	}

	var filteredSource []string
	var originalLineNumbers []int
	for i, line := range source {
		normalizedLine := normalizeLineForMatching(line)
		if normalizedLine != "" {
			filteredSource = append(filteredSource, normalizedLine)
			originalLineNumbers = append(originalLineNumbers, i+1)
		}
	}

	found := -1
	for i := 0; i <= len(filteredSource)-len(normalizedBlock); i++ {
		match := true
		for j := 0; j < len(normalizedBlock); j++ {
			if filteredSource[i+j] != normalizedBlock[j] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if found != -1 {
			return -1
		}
		found = originalLineNumbers[i]
	}
	return found
}
