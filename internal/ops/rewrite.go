package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/rewrite"
	"github.com/hpungsan/deck/internal/session"
)

// RewriteInput contains parameters for the Rewrite operation.
type RewriteInput struct {
	ID     string
	Prompt string
	Apply  bool // persist the suggestion instead of only returning it
}

// RewriteOutput contains the result of the Rewrite operation.
type RewriteOutput struct {
	ID         string             `json:"id"`
	Suggestion rewrite.Suggestion `json:"suggestion"`
	Diff       string             `json:"diff"`
	Applied    bool               `json:"applied"`
}

// Rewrite asks the rewrite service for a new version of a card. With Apply
// set the suggestion is saved through an editor session on the card store.
func Rewrite(ctx context.Context, database *sql.DB, cfg *config.Config, svc *rewrite.Service, log *logger.Logger, input RewriteInput) (*RewriteOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, errors.NewRewriteUnavailable(nil)
	}

	c, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}
	doc := c.Document()

	res, err := svc.Rewrite(ctx, rewrite.Request{
		CardID: c.ID,
		Prompt: input.Prompt,
		Title:  doc.Title,
		Text:   doc.Text(),
	})
	if err != nil {
		return nil, err
	}

	out := &RewriteOutput{
		ID:         c.ID,
		Suggestion: res.Suggestion,
		Diff:       res.Diff,
	}
	if !input.Apply {
		return out, nil
	}

	sug := res.Suggestion
	sug.Title = card.NormalizeTitle(sug.Title)
	if err := lintDocument(cfg, content.Document{Title: sug.Title, Body: sug.Body}); err != nil {
		return nil, err
	}

	editor := session.NewEditor(db.NewCardStore(database), log)
	s := editor.Open(ctx, c.ID)
	if s.Detached {
		return nil, errors.NewInternal(fmt.Errorf("card %s could not be loaded for editing", c.ID))
	}
	s = session.Apply(s, sug.Title, sug.Body)
	if _, err := editor.Save(ctx, s); err != nil {
		return nil, errors.As(err)
	}

	out.Applied = true
	return out, nil
}
