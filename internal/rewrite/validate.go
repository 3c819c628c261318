package rewrite

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/errors"
)

// Validate checks a user prompt against the configured bounds and blocked
// phrases. Phrase matching ignores case.
func Validate(prompt string, cfg config.RewriteConfig) error {
	trimmed := strings.TrimSpace(prompt)
	n := utf8.RuneCountInString(trimmed)

	if n == 0 {
		return errors.NewPromptRejected("prompt is required")
	}
	if cfg.MinPromptChars > 0 && n < cfg.MinPromptChars {
		return errors.NewPromptRejected(fmt.Sprintf("prompt too short: %d chars (min %d)", n, cfg.MinPromptChars))
	}
	if cfg.MaxPromptChars > 0 && n > cfg.MaxPromptChars {
		return errors.NewPromptRejected(fmt.Sprintf("prompt too long: %d chars (max %d)", n, cfg.MaxPromptChars))
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range cfg.BlockedPhrases {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" && strings.Contains(lower, p) {
			return errors.NewPromptRejected(fmt.Sprintf("prompt contains a blocked phrase: %q", phrase))
		}
	}
	return nil
}
