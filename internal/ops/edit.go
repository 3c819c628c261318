package ops

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/session"
	"github.com/hpungsan/deck/internal/store"
)

// StoreFileName is the JSON document used by the file backend.
const StoreFileName = "cards.json"

// OpenStore returns the markup store selected by cfg.StoreBackend.
func OpenStore(cfg *config.Config, database *sql.DB, baseDir string) (store.Store, error) {
	switch cfg.StoreBackend {
	case "", config.StoreSQLite:
		if database == nil {
			return nil, errors.NewInternal(fmt.Errorf("sqlite store requested without a database"))
		}
		return db.NewCardStore(database), nil
	case config.StoreFile:
		return store.NewFile(filepath.Join(baseDir, StoreFileName)), nil
	}
	return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown store_backend %q (want sqlite or file)", cfg.StoreBackend))
}

// EditInput contains parameters for the Edit operation.
type EditInput struct {
	Key string

	// Replacement fields (nil = keep)
	Title *string
	Text  *string
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Text  string `json:"text"`
	HTML  string `json:"html"`  // sanitized body markup
	Saved bool   `json:"saved"` // false when nothing changed
}

// Edit opens an editor session for key, applies the replacements and saves.
// A missing key starts an empty card. A card that could not be loaded is
// only overwritten when both title and text are supplied.
func Edit(ctx context.Context, editor *session.Editor, cfg *config.Config, input EditInput) (*EditOutput, error) {
	key, err := requireID(input.Key)
	if err != nil {
		return nil, err
	}
	if input.Title == nil && input.Text == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	s := editor.Open(ctx, key)
	if s.Detached && (input.Title == nil || input.Text == nil) {
		return nil, errors.NewInternal(fmt.Errorf("card %s could not be loaded; supply both title and text to overwrite it", key))
	}

	title, text := s.Title, s.Text
	if input.Title != nil {
		title = card.NormalizeTitle(*input.Title)
	}
	if input.Text != nil {
		text = *input.Text
	}
	s = session.Edit(s, title, text)

	if err := lintDocument(cfg, s.Document()); err != nil {
		return nil, err
	}

	saved := s.Dirty
	s, err = editor.Save(ctx, s)
	if err != nil {
		return nil, errors.As(err)
	}

	out := &EditOutput{Key: s.Key, Title: s.Title, Text: s.Text, HTML: Sanitize(s.Preview()), Saved: saved}
	if _, discarded := session.Close(s); discarded {
		return nil, errors.NewInternal(fmt.Errorf("card %s closed with unsaved changes", s.Key))
	}
	return out, nil
}
