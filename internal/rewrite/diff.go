package rewrite

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Diff returns a unified diff from the current card text to the suggestion.
// Identical inputs give an empty string.
func Diff(current, suggested string) string {
	current, suggested = withNewline(current), withNewline(suggested)
	if current == suggested {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath("current"), current, suggested)
	return fmt.Sprint(gotextdiff.ToUnified("current", "suggested", current, edits))
}

// DiffCards compares title and body together, title on the first line.
func DiffCards(curTitle, curText, sugTitle, sugText string) string {
	return Diff(cardLines(curTitle, curText), cardLines(sugTitle, sugText))
}

func cardLines(title, text string) string {
	return "TITLE: " + title + "\n\n" + text
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
