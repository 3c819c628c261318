package card

import (
	"github.com/hpungsan/deck/internal/errors"
)

// LintInput contains parameters for linting a card.
type LintInput struct {
	Title         string
	Text          string // body in the plain-text convention
	MaxTitleChars int
	MaxBodyChars  int
}

// LintResult contains the results of linting a card.
type LintResult struct {
	Valid         bool
	TitleMissing  bool
	TitleTooLarge bool
	BodyTooLarge  bool
	TitleChars    int
	BodyChars     int
	MaxTitleChars int
	MaxBodyChars  int
}

// Lint validates card content and returns a LintResult.
func Lint(input LintInput) *LintResult {
	result := &LintResult{
		Valid:         true,
		TitleChars:    CountChars(input.Title),
		BodyChars:     CountChars(input.Text),
		MaxTitleChars: input.MaxTitleChars,
		MaxBodyChars:  input.MaxBodyChars,
	}

	if NormalizeTitle(input.Title) == "" {
		result.TitleMissing = true
		result.Valid = false
	}
	if input.MaxTitleChars > 0 && result.TitleChars > input.MaxTitleChars {
		result.TitleTooLarge = true
		result.Valid = false
	}
	if input.MaxBodyChars > 0 && result.BodyChars > input.MaxBodyChars {
		result.BodyTooLarge = true
		result.Valid = false
	}

	return result
}

// Err converts a failed lint into the error reported to callers.
// Returns nil for a valid result.
func (r *LintResult) Err() error {
	switch {
	case r.Valid:
		return nil
	case r.TitleMissing:
		return errors.NewInvalidRequest("title is required")
	case r.TitleTooLarge:
		return errors.NewCardTooLarge("title", r.MaxTitleChars, r.TitleChars)
	default:
		return errors.NewCardTooLarge("body", r.MaxBodyChars, r.BodyChars)
	}
}
