package rewrite

import (
	"strings"

	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
)

// Reply markers the model is instructed to use.
const (
	errorMarker = "ERROR:"
	titleMarker = "TITLE:"
	bodyMarker  = "BODY:"
)

// Suggestion is a proposed replacement for a card.
type Suggestion struct {
	Title string           `json:"title"`
	Text  string           `json:"text"`
	Body  content.Fragment `json:"body"`
}

// ParseReply reads the model's raw text. A reply starting with "ERROR:" is a
// refusal and maps to PROMPT_REJECTED. Otherwise the optional "TITLE:" line
// and the text after "BODY:" form the suggestion; a reply with neither
// marker is taken as a body. An empty suggested title keeps fallbackTitle.
func ParseReply(raw, fallbackTitle string) (Suggestion, error) {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if text == "" {
		return Suggestion{}, errors.NewRewriteUnavailable(nil)
	}

	if rest, ok := cutPrefixFold(text, errorMarker); ok {
		reason := strings.TrimSpace(rest)
		if reason == "" {
			reason = "the model declined the request"
		}
		return Suggestion{}, errors.NewPromptRejected(reason)
	}

	title := ""
	body := text
	if rest, ok := cutPrefixFold(text, titleMarker); ok {
		line, remainder, _ := strings.Cut(rest, "\n")
		title = strings.TrimSpace(line)
		body = remainder
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if rest, ok := cutPrefixFold(strings.TrimSpace(line), bodyMarker); ok {
			body = strings.Join(append([]string{rest}, lines[i+1:]...), "\n")
			break
		}
	}
	if title == "" {
		title = fallbackTitle
	}

	frag := content.Decode(body)
	return Suggestion{
		Title: title,
		Text:  content.Encode(frag),
		Body:  frag,
	}, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
