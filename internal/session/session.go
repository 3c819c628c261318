// Package session tracks one card being edited. A Session is a plain value:
// every operation takes one and returns the next, and nothing is held in
// package state.
package session

import (
	"context"
	"fmt"

	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/store"
)

// Session is the state of an edit in progress.
type Session struct {
	// Key is the card identifier being edited; empty when closed.
	Key string `json:"key"`

	Title string `json:"title"`

	// Text is the body in the plain-text convention.
	Text string `json:"text"`

	Dirty bool `json:"dirty"`

	// Detached is set when the stored value could not be read and the
	// session started from an empty card held only in memory.
	Detached bool `json:"detached,omitempty"`

	baseTitle string
	baseText  string
}

// IsOpen reports whether the session refers to a card.
func (s Session) IsOpen() bool {
	return s.Key != ""
}

// Document decodes the current text into a card document.
func (s Session) Document() content.Document {
	return content.Document{Title: s.Title, Body: content.Decode(s.Text)}
}

// Preview renders the current text as body markup.
func (s Session) Preview() string {
	return content.RenderHTML(content.Decode(s.Text))
}

// Editor opens and saves sessions against a store.
type Editor struct {
	store store.Store
	log   *logger.Logger
}

// NewEditor returns an Editor. A nil logger discards output.
func NewEditor(s store.Store, log *logger.Logger) *Editor {
	if log == nil {
		log = logger.Discard()
	}
	return &Editor{store: s, log: log}
}

// Open starts a session for key. A missing card opens empty. A read failure
// is logged and the session opens detached rather than failing.
func (e *Editor) Open(ctx context.Context, key string) Session {
	markup, ok, err := e.store.Load(ctx, key)
	if err != nil {
		e.log.PersistError("load", key, err)
		return Session{Key: key, Detached: true}
	}
	if !ok {
		return Session{Key: key}
	}

	doc := content.ParseDocument(markup)
	text := content.Encode(doc.Body)
	return Session{
		Key:       key,
		Title:     doc.Title,
		Text:      text,
		baseTitle: doc.Title,
		baseText:  text,
	}
}

// Edit replaces the title and text. Dirty tracks whether they differ from
// what was last loaded or saved. Editing a closed session does nothing.
func Edit(s Session, title, text string) Session {
	if !s.IsOpen() {
		return s
	}
	s.Title = title
	s.Text = text
	s.Dirty = title != s.baseTitle || text != s.baseText
	return s
}

// Apply replaces the session contents with a suggested title and body.
func Apply(s Session, title string, body content.Fragment) Session {
	return Edit(s, title, content.Encode(body))
}

// Save persists a dirty session. On failure the error is logged and
// returned with the session unchanged, still dirty, so nothing typed is lost.
func (e *Editor) Save(ctx context.Context, s Session) (Session, error) {
	if !s.IsOpen() {
		return s, errors.NewInvalidRequest("no card is open")
	}
	// A detached session with no edits must not overwrite the stored card.
	if !s.Dirty {
		return s, nil
	}

	markup := content.RenderDocument(s.Document())
	if err := e.store.Save(ctx, s.Key, markup); err != nil {
		e.log.PersistError("save", s.Key, err)
		return s, fmt.Errorf("save %s: %w", s.Key, err)
	}
	e.log.CardSaved(s.Key, len([]rune(s.Text)))

	// Re-read the text through the codec so the baseline matches what a
	// fresh Open would show.
	s.Text = content.Encode(content.Decode(s.Text))
	s.baseTitle, s.baseText = s.Title, s.Text
	s.Dirty = false
	s.Detached = false
	return s, nil
}

// Close ends the session. discarded reports whether unsaved changes were
// dropped.
func Close(s Session) (closed Session, discarded bool) {
	return Session{}, s.Dirty
}
