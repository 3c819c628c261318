// Package card defines the stored card record and the checks applied to it.
package card

import (
	"unicode/utf8"

	"github.com/hpungsan/deck/internal/content"
)

// Card is one persisted unit of the deck.
type Card struct {
	// ID is a ULID that uniquely identifies this card
	ID string

	// Title is the card heading shown in lists
	Title string

	// Markup is the serialized document (title header plus body blocks).
	// It is the only source of truth for the body.
	Markup string

	// BodyText is the body with markers stripped, kept for search and previews
	BodyText string

	// Chars is the rune count of the body in the plain-text convention
	Chars int

	CreatedAt int64
	UpdatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// New builds a card from a document, filling the derived fields.
func New(id string, doc content.Document, now int64) *Card {
	c := &Card{ID: id, CreatedAt: now, UpdatedAt: now}
	c.SetDocument(doc)
	return c
}

// SetDocument replaces the card contents wholesale.
func (c *Card) SetDocument(doc content.Document) {
	c.Title = doc.Title
	c.Markup = content.RenderDocument(doc)
	c.BodyText = doc.Body.PlainText()
	c.Chars = CountChars(doc.Text())
}

// Document parses the stored markup. The title column wins over the
// header so that older markup without a header still has its title.
func (c *Card) Document() content.Document {
	doc := content.ParseDocument(c.Markup)
	doc.Title = c.Title
	return doc
}

// Text returns the body in the plain-text convention.
func (c *Card) Text() string {
	return c.Document().Text()
}

// Summary is the list view of a card.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
	Chars     int    `json:"chars"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// PreviewChars is the maximum length of a summary preview.
const PreviewChars = 80

// Summarize builds the list view of c.
func Summarize(c *Card) Summary {
	return Summary{
		ID:        c.ID,
		Title:     c.Title,
		Preview:   Preview(c.BodyText, PreviewChars),
		Chars:     c.Chars,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
