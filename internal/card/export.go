package card

import "github.com/hpungsan/deck/internal/content"

// ExportRecord represents a card record in JSONL export format.
type ExportRecord struct {
	// Header detection field - true only for header line
	DeckExport bool `json:"_deck_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID        string `json:"id"`
	Title     string `json:"title"`
	Markup    string `json:"markup"`
	Chars     int    `json:"chars"` // IGNORED on import, recomputed
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at"`
}

// ToCard converts an ExportRecord to a Card. The markup is re-parsed and
// re-rendered so imported files cannot smuggle arbitrary HTML into storage.
func (r *ExportRecord) ToCard() *Card {
	doc := content.ParseDocument(r.Markup)
	doc.Title = NormalizeTitle(r.Title)

	c := New(r.ID, doc, r.CreatedAt)
	c.UpdatedAt = r.UpdatedAt
	c.DeletedAt = r.DeletedAt
	return c
}

// ToExportRecord converts a Card to an ExportRecord for export.
func ToExportRecord(c *Card) *ExportRecord {
	return &ExportRecord{
		ID:        c.ID,
		Title:     c.Title,
		Markup:    c.Markup,
		Chars:     c.Chars,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}
}
