package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
)

// CardStore exposes the cards table as a key-value store of document markup,
// keyed by card ID.
type CardStore struct {
	db *sql.DB
}

// NewCardStore wraps an initialized database.
func NewCardStore(db *sql.DB) *CardStore {
	return &CardStore{db: db}
}

// Load returns the markup of an active card.
func (s *CardStore) Load(ctx context.Context, key string) (string, bool, error) {
	c, err := GetByID(ctx, s.db, key, false)
	if errors.Is(err, errors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.Markup, true, nil
}

// Save replaces the card's document, creating the row if needed.
// A soft-deleted card is restored.
func (s *CardStore) Save(ctx context.Context, key, value string) error {
	c := card.New(key, content.ParseDocument(value), time.Now().Unix())
	return Upsert(ctx, s.db, c)
}

// Delete soft-deletes the card. Missing cards are not an error.
func (s *CardStore) Delete(ctx context.Context, key string) error {
	err := SoftDelete(ctx, s.db, key)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}
