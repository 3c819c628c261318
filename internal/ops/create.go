package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
)

// CreateInput contains parameters for the Create operation.
// The body comes from Text (plain-text convention) or Markup, not both.
type CreateInput struct {
	Title  string
	Text   string
	Markup string // stored-document markup; its header is the title when Title is empty
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Chars int    `json:"chars"`
}

// Create stores a new card.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	if input.Text != "" && input.Markup != "" {
		return nil, errors.NewInvalidRequest("provide text or markup, not both")
	}

	var doc content.Document
	if input.Markup != "" {
		doc = content.ParseDocument(input.Markup)
	} else {
		doc = content.Document{Body: content.Decode(input.Text)}
	}
	if input.Title != "" {
		doc.Title = input.Title
	}
	doc.Title = card.NormalizeTitle(doc.Title)

	if err := lintDocument(cfg, doc); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	c := card.New(id, doc, time.Now().Unix())
	if err := db.Insert(ctx, database, c); err != nil {
		return nil, err
	}

	return &CreateOutput{ID: c.ID, Title: c.Title, Chars: c.Chars}, nil
}

// lintDocument checks a document against the configured size limits.
func lintDocument(cfg *config.Config, doc content.Document) error {
	return card.Lint(card.LintInput{
		Title:         doc.Title,
		Text:          doc.Text(),
		MaxTitleChars: cfg.TitleMaxChars,
		MaxBodyChars:  cfg.CardMaxChars,
	}).Err()
}
