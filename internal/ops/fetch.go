package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
	Format         Format // default: text
}

// FetchOutput contains the result of the Fetch operation. Exactly one of
// Text, HTML and Body is populated, chosen by Format.
type FetchOutput struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Format    Format           `json:"format"`
	Text      string           `json:"text,omitempty"`
	HTML      string           `json:"html,omitempty"`
	Body      content.Fragment `json:"body,omitempty"`
	Chars     int              `json:"chars"`
	CreatedAt int64            `json:"created_at"`
	UpdatedAt int64            `json:"updated_at"`
	DeletedAt *int64           `json:"deleted_at,omitempty"`
}

// Fetch retrieves a card by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	c, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	out := &FetchOutput{
		ID:        c.ID,
		Title:     c.Title,
		Format:    format,
		Chars:     c.Chars,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}

	doc := c.Document()
	switch format {
	case FormatHTML:
		out.HTML = Sanitize(content.RenderHTML(doc.Body))
	case FormatFragment:
		out.Body = doc.Body
	default:
		out.Text = doc.Text()
	}
	return out, nil
}
