package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.DeckError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

const cardColumns = `id, title, markup, body_text, body_chars, created_at, updated_at, deleted_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Insert stores a new card in the database.
func Insert(ctx context.Context, db *sql.DB, c *card.Card) error {
	return insert(ctx, db, c)
}

// InsertTx stores a card inside tx, keeping its deleted_at.
func InsertTx(ctx context.Context, tx *sql.Tx, c *card.Card) error {
	return insert(ctx, tx, c)
}

func insert(ctx context.Context, ex execer, c *card.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ex.ExecContext(ctx, query,
		c.ID, c.Title, c.Markup, c.BodyText, c.Chars, c.CreatedAt, c.UpdatedAt, toNullInt64(c.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// Upsert inserts a card or overwrites every mutable column of an existing
// one. created_at is kept from the first insert.
func Upsert(ctx context.Context, db *sql.DB, c *card.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			markup = excluded.markup,
			body_text = excluded.body_text,
			body_chars = excluded.body_chars,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
	`

	_, err := db.ExecContext(ctx, query,
		c.ID, c.Title, c.Markup, c.BodyText, c.Chars, c.CreatedAt, c.UpdatedAt, toNullInt64(c.DeletedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a card by its ULID.
// If includeDeleted is false, soft-deleted cards are excluded.
func GetByID(ctx context.Context, db *sql.DB, id string, includeDeleted bool) (*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	c, err := scanCard(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return c, nil
}

// Exists reports whether a card row exists, deleted or not.
func Exists(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// UpdateByID rewrites the title and body of an active card.
// Sets updated_at to the current timestamp.
func UpdateByID(ctx context.Context, db *sql.DB, c *card.Card) error {
	now := time.Now().Unix()

	query := `
		UPDATE cards
		SET title = ?, markup = ?, body_text = ?, body_chars = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query,
		c.Title, c.Markup, c.BodyText, c.Chars, now, c.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(c.ID)
	}

	c.UpdatedAt = now
	return nil
}

// SoftDelete marks a card as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.ExecContext(ctx,
		`UPDATE cards SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// List returns one page of cards ordered by most recent update, plus the
// total number of matching cards.
func List(ctx context.Context, db *sql.DB, limit, offset int, includeDeleted bool) ([]*card.Card, int, error) {
	where := "WHERE deleted_at IS NULL"
	if includeDeleted {
		where = ""
	}
	return page(ctx, db, where, nil, limit, offset)
}

// Search returns cards whose title or body text contains query,
// case-insensitively for ASCII. Deleted cards are excluded.
func Search(ctx context.Context, db *sql.DB, query string, limit, offset int) ([]*card.Card, int, error) {
	pattern := "%" + escapeLike(query) + "%"
	where := `WHERE deleted_at IS NULL AND (title LIKE ? ESCAPE '\' OR body_text LIKE ? ESCAPE '\')`
	return page(ctx, db, where, []any{pattern, pattern}, limit, offset)
}

func page(ctx context.Context, db *sql.DB, where string, args []any, limit, offset int) ([]*card.Card, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards `+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + cardColumns + ` FROM cards ` + where + ` ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var cards []*card.Card
	for rows.Next() {
		c, err := ScanCardFromRows(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return cards, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// StreamForExport returns rows over every card in creation order.
// The caller must close the rows.
func StreamForExport(ctx context.Context, db *sql.DB, includeDeleted bool) (*sql.Rows, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// PurgeDeleted permanently removes soft-deleted cards. With olderThanDays
// set, only cards deleted before that many days ago are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, olderThanDays *int) (int, error) {
	query := `DELETE FROM cards WHERE deleted_at IS NOT NULL`
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanCardFromRows scans the current row of a StreamForExport result.
func ScanCardFromRows(rows *sql.Rows) (*card.Card, error) {
	return scanCard(rows)
}

func scanCard(row rowScanner) (*card.Card, error) {
	var (
		c         card.Card
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&c.ID, &c.Title, &c.Markup, &c.BodyText, &c.Chars,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Int64
	}

	return &c, nil
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
