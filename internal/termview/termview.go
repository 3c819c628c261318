// Package termview renders cards, lists and rewrite diffs for a terminal.
package termview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/content"
)

const wrapWidth = 100

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	deletedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// render runs markdown through glamour, falling back to the raw markdown
// when the renderer cannot be built or fails.
func render(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Card renders a document as styled terminal output.
func Card(doc content.Document) string {
	md := content.ToMarkdown(doc)
	if md == "" {
		return ""
	}
	return render(md)
}

// Diff renders a unified diff with +/- highlighting. An empty diff yields
// an empty string.
func Diff(unified string) string {
	if unified == "" {
		return ""
	}
	if !strings.HasSuffix(unified, "\n") {
		unified += "\n"
	}
	return render(fmt.Sprintf("```diff\n%s```\n", unified))
}

// List formats card summaries, one boxed entry per card.
func List(items []card.Summary) string {
	if len(items) == 0 {
		return idStyle.Render("no cards") + "\n"
	}

	var b strings.Builder
	for _, s := range items {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		header := titleStyle.Render(title) + "  " + idStyle.Render(s.ID)
		if s.DeletedAt != nil {
			header += "  " + deletedStyle.Render("deleted")
		}
		lines := []string{header}
		if s.Preview != "" {
			lines = append(lines, previewStyle.Render(s.Preview))
		}
		lines = append(lines, idStyle.Render(fmt.Sprintf("%d chars, updated %s",
			s.Chars, time.Unix(s.UpdatedAt, 0).Format(time.DateTime))))
		b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	return b.String()
}
