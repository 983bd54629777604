package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

// CollapseWhitespace trims s and folds every whitespace run to one space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}
