package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit          int // default: 20, max: 100
	Offset         int // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []card.Summary `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Sort       string         `json:"sort"`
}

// List retrieves card summaries with pagination, most recently updated first.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit, offset := clampPage(input.Limit, input.Offset, DefaultListLimit, MaxListLimit)

	cards, total, err := db.List(ctx, database, limit, offset, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	items := make([]card.Summary, 0, len(cards))
	for _, c := range cards {
		items = append(items, card.Summarize(c))
	}

	return &ListOutput{
		Items:      items,
		Pagination: newPagination(limit, offset, len(items), total),
		Sort:       "updated_at_desc",
	}, nil
}
