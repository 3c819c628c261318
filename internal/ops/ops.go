// Package ops implements the card operations shared by the CLI, the MCP
// server and the web editor.
package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/deck/internal/errors"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

func newPagination(limit, offset, count, total int) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+count < total,
		Total:   total,
	}
}

// clampPage applies the default and maximum to limit and floors offset at 0.
func clampPage(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(offset, 0)
}

// Format selects how a card body is returned.
type Format string

const (
	FormatText     Format = "text"     // plain-text convention (default)
	FormatHTML     Format = "html"     // sanitized markup
	FormatFragment Format = "fragment" // structured blocks
)

func parseFormat(f Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(f)))) {
	case "", FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatFragment:
		return FormatFragment, nil
	}
	return "", errors.NewInvalidRequest("format must be one of: text, html, fragment")
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
