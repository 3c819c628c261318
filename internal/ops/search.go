package ops

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
)

// Search limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxQueryLength     = 200
	snippetContext     = 60 // runes either side of the match
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string // required
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// SearchResultItem wraps a Summary with a match snippet.
type SearchResultItem struct {
	card.Summary
	// Snippet is HTML-safe: card text is escaped; only <b>...</b>
	// highlight tags are present.
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// Search finds active cards whose title or body text contains the query.
func Search(ctx context.Context, database *sql.DB, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	limit, offset := clampPage(input.Limit, input.Offset, DefaultSearchLimit, MaxSearchLimit)

	cards, total, err := db.Search(ctx, database, query, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]SearchResultItem, 0, len(cards))
	for _, c := range cards {
		items = append(items, SearchResultItem{
			Summary: card.Summarize(c),
			Snippet: buildSnippet(c.BodyText, query),
		})
	}

	return &SearchOutput{
		Items:      items,
		Pagination: newPagination(limit, offset, len(items), total),
		Sort:       "updated_at_desc",
	}, nil
}

// buildSnippet returns the text around the first case-insensitive match
// with the match wrapped in <b>. Without a body match it returns the start
// of the text.
func buildSnippet(text, query string) string {
	runes := []rune(text)
	at := indexFold(runes, []rune(query))
	if at < 0 {
		return html.EscapeString(card.Preview(text, 2*snippetContext))
	}
	end := at + utf8.RuneCountInString(query)

	start := max(at-snippetContext, 0)
	stop := min(end+snippetContext, len(runes))

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(html.EscapeString(string(runes[start:at])))
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(string(runes[at:end])))
	b.WriteString("</b>")
	b.WriteString(html.EscapeString(string(runes[end:stop])))
	if stop < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

// indexFold finds needle in haystack comparing runes case-insensitively.
// It works on runes so offsets stay valid when case mapping changes the
// byte length.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
