package ops

import (
	"context"
	"database/sql"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
)

// markupPolicy admits exactly the elements a card document can contain.
var markupPolicy = bluemonday.NewPolicy().
	AllowElements("header", "h1", "h2", "h3", "h4", "h5", "h6", "p", "ul", "ol", "li", "strong", "b")

// Sanitize strips anything from markup that a card document cannot hold.
func Sanitize(markup string) string {
	return markupPolicy.Sanitize(markup)
}

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	ID string
}

// RenderOutput contains the result of the Render operation.
type RenderOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"` // full document markup, sanitized
}

// Render returns the sanitized document markup of an active card.
func Render(ctx context.Context, database *sql.DB, input RenderInput) (*RenderOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	c, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	return &RenderOutput{
		ID:    c.ID,
		Title: c.Title,
		HTML:  Sanitize(content.RenderDocument(c.Document())),
	}, nil
}
