package card

import (
	"strings"
	"testing"

	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
)

func sampleDoc() content.Document {
	return content.Document{
		Title: "Roadmap",
		Body: content.Fragment{
			content.Heading(2, content.Plain("Now")),
			content.List(false, content.Strong("ship"), content.Plain("measure")),
		},
	}
}

func TestNew_DerivedFields(t *testing.T) {
	c := New("01ABC", sampleDoc(), 100)

	if c.Title != "Roadmap" {
		t.Errorf("Title = %q, want Roadmap", c.Title)
	}
	if !strings.HasPrefix(c.Markup, "<header>Roadmap</header>") {
		t.Errorf("Markup = %q, want header first", c.Markup)
	}
	if c.BodyText != "Now\nship\nmeasure" {
		t.Errorf("BodyText = %q", c.BodyText)
	}
	wantText := "## Now\n\n• **ship**\n• measure"
	if got := c.Text(); got != wantText {
		t.Errorf("Text() = %q, want %q", got, wantText)
	}
	if c.Chars != CountChars(wantText) {
		t.Errorf("Chars = %d, want %d", c.Chars, CountChars(wantText))
	}
	if c.CreatedAt != 100 || c.UpdatedAt != 100 {
		t.Errorf("timestamps = %d/%d, want 100/100", c.CreatedAt, c.UpdatedAt)
	}
}

func TestDocument_TitleColumnWins(t *testing.T) {
	c := &Card{Title: "Renamed", Markup: "<header>Old</header>\n<p>x</p>"}
	doc := c.Document()
	if doc.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", doc.Title)
	}
	if !content.Equal(doc.Body, content.Fragment{content.Paragraph(content.Plain("x"))}) {
		t.Errorf("Body = %+v", doc.Body)
	}
}

func TestSummarize(t *testing.T) {
	c := New("01ABC", content.Document{
		Title: "Long",
		Body:  content.Fragment{content.Paragraph(content.Plain(strings.Repeat("word ", 40)))},
	}, 5)

	s := Summarize(c)
	if s.ID != "01ABC" || s.Title != "Long" {
		t.Errorf("Summary = %+v", s)
	}
	if !strings.HasSuffix(s.Preview, "…") {
		t.Errorf("Preview = %q, want ellipsis", s.Preview)
	}
	if n := len([]rune(s.Preview)); n > PreviewChars+1 {
		t.Errorf("Preview length = %d, want <= %d", n, PreviewChars+1)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"  line one\nline two  ", 100, "line one line two"},
		{"héllo wörld", 5, "héllo…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Preview(tt.text, tt.max); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("  Q3   Goals \n"); got != "Q3 Goals" {
		t.Errorf("NormalizeTitle() = %q, want %q", got, "Q3 Goals")
	}
}

func TestLint(t *testing.T) {
	tests := []struct {
		name     string
		input    LintInput
		wantCode errors.ErrorCode
	}{
		{"valid", LintInput{Title: "t", Text: "body", MaxTitleChars: 10, MaxBodyChars: 10}, ""},
		{"no limits", LintInput{Title: "t", Text: strings.Repeat("x", 1000)}, ""},
		{"missing title", LintInput{Title: "   ", Text: "body"}, errors.ErrInvalidRequest},
		{"title too large", LintInput{Title: "abcdef", MaxTitleChars: 5}, errors.ErrCardTooLarge},
		{"body too large", LintInput{Title: "t", Text: "123456", MaxBodyChars: 5}, errors.ErrCardTooLarge},
		{"multibyte counted as runes", LintInput{Title: "t", Text: "ééééé", MaxBodyChars: 5}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Lint(tt.input).Err()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Lint().Err() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Lint().Err() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestExportRecord_ToCardSanitizesMarkup(t *testing.T) {
	r := &ExportRecord{
		ID:        "01X",
		Title:     "  Imported  ",
		Markup:    `<header>ignored</header><p onclick="x()">hi <script>bad()</script><b>there</b></p>`,
		Chars:     999,
		CreatedAt: 1,
		UpdatedAt: 2,
	}

	c := r.ToCard()
	if c.Title != "Imported" {
		t.Errorf("Title = %q, want Imported", c.Title)
	}
	if strings.Contains(c.Markup, "script") || strings.Contains(c.Markup, "onclick") {
		t.Errorf("Markup not re-rendered: %q", c.Markup)
	}
	if c.Text() != "hi **there**" {
		t.Errorf("Text() = %q, want %q", c.Text(), "hi **there**")
	}
	if c.Chars != CountChars("hi **there**") {
		t.Errorf("Chars = %d, want recomputed", c.Chars)
	}
	if c.CreatedAt != 1 || c.UpdatedAt != 2 {
		t.Errorf("timestamps = %d/%d, want 1/2", c.CreatedAt, c.UpdatedAt)
	}
}
