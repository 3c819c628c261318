// Package content holds the structured model of a card body and the pure
// codecs that move it between the editable plain-text convention, stored
// HTML markup, and imported Markdown.
package content

import (
	"fmt"
	"strings"
)

// Kind identifies the block type of a Node.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindList
)

var kindNames = map[Kind]string{
	KindParagraph: "paragraph",
	KindHeading:   "heading",
	KindList:      "list",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name so JSON fragments stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", string(b))
}

// Span is a run of text with a single weight.
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Inline is a text value carrying bold spans.
type Inline []Span

// Plain returns an Inline holding s with no emphasis.
func Plain(s string) Inline {
	return Inline{{Text: s}}.normalize()
}

// Strong returns an Inline holding s in bold.
func Strong(s string) Inline {
	return Inline{{Text: s, Bold: true}}.normalize()
}

// Concat joins inline values in order.
func Concat(parts ...Inline) Inline {
	var out Inline
	for _, p := range parts {
		out = append(out, p...)
	}
	return out.normalize()
}

// String returns the text without any emphasis markers.
func (in Inline) String() string {
	var b strings.Builder
	for _, s := range in {
		b.WriteString(s.Text)
	}
	return b.String()
}

// normalize merges neighbouring spans of equal weight and drops empty spans,
// giving every Inline a single canonical shape.
func (in Inline) normalize() Inline {
	var out Inline
	for _, s := range in {
		if s.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Bold == s.Bold {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

// Equal reports whether two inline values render identically.
func (in Inline) Equal(other Inline) bool {
	a, b := in.normalize(), other.normalize()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Node is one block of a card body.
//
// Level and Text apply to headings, Text alone to paragraphs,
// Ordered and Items to lists.
type Node struct {
	Kind    Kind     `json:"kind"`
	Level   int      `json:"level,omitempty"`
	Text    Inline   `json:"text,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Items   []Inline `json:"items,omitempty"`
}

// Heading builds a heading node.
func Heading(level int, text Inline) Node {
	return Node{Kind: KindHeading, Level: level, Text: text.normalize()}
}

// Paragraph builds a paragraph node.
func Paragraph(text Inline) Node {
	return Node{Kind: KindParagraph, Text: text.normalize()}
}

// List builds a list node.
func List(ordered bool, items ...Inline) Node {
	n := Node{Kind: KindList, Ordered: ordered}
	for _, it := range items {
		n.Items = append(n.Items, it.normalize())
	}
	return n
}

// Equal reports whether two nodes are structurally the same.
func (n Node) Equal(o Node) bool {
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindHeading:
		return n.Level == o.Level && n.Text.Equal(o.Text)
	case KindList:
		if n.Ordered != o.Ordered || len(n.Items) != len(o.Items) {
			return false
		}
		for i := range n.Items {
			if !n.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	default:
		return n.Text.Equal(o.Text)
	}
}

// Fragment is the ordered block sequence of one card body.
type Fragment []Node

// Equal reports whether two fragments hold the same nodes in the same order.
func Equal(a, b Fragment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// PlainText returns the body text with markers and emphasis stripped,
// one block or list item per line. Used for search and previews.
func (f Fragment) PlainText() string {
	var lines []string
	for _, n := range f {
		if n.Kind == KindList {
			for _, it := range n.Items {
				lines = append(lines, it.String())
			}
			continue
		}
		lines = append(lines, n.Text.String())
	}
	return strings.Join(lines, "\n")
}

// Document is a whole card: its title and body.
type Document struct {
	Title string   `json:"title"`
	Body  Fragment `json:"body"`
}

// Text returns the body in the plain-text convention.
func (d Document) Text() string {
	return Encode(d.Body)
}
