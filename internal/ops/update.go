package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Title *string
	Text  *string // body in the plain-text convention
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Chars     int    `json:"chars"`
	UpdatedAt int64  `json:"updated_at"`
}

// Update modifies an existing card.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title == nil && input.Text == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	// Fetch existing card (active only)
	c, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	doc := c.Document()
	if input.Title != nil {
		doc.Title = card.NormalizeTitle(*input.Title)
	}
	if input.Text != nil {
		doc.Body = content.Decode(*input.Text)
	}

	if err := lintDocument(cfg, doc); err != nil {
		return nil, err
	}

	c.SetDocument(doc)
	if err := db.UpdateByID(ctx, database, c); err != nil {
		return nil, err
	}

	return &UpdateOutput{
		ID:        c.ID,
		Title:     c.Title,
		Chars:     c.Chars,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
