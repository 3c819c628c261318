package card

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTitle trims a title and collapses internal whitespace.
// Case is preserved; titles are displayed, not matched.
func NormalizeTitle(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Preview returns the first max runes of text on a single line,
// with an ellipsis when truncated.
func Preview(text string, max int) string {
	flat := whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
	runes := []rune(flat)
	if max <= 0 || len(runes) <= max {
		return flat
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
