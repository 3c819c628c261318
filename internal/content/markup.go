package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML serializes a fragment to the markup stored for a card body.
func RenderHTML(f Fragment) string {
	var b strings.Builder
	for i, n := range f {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch n.Kind {
		case KindHeading:
			level := clampLevel(n.Level)
			fmt.Fprintf(&b, "<h%d>%s</h%d>", level, renderInline(n.Text), level)
		case KindList:
			tag := "ul"
			if n.Ordered {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for _, it := range n.Items {
				b.WriteString("<li>" + renderInline(it) + "</li>")
			}
			b.WriteString("</" + tag + ">")
		default:
			b.WriteString("<p>" + renderInline(n.Text) + "</p>")
		}
	}
	return b.String()
}

func renderInline(in Inline) string {
	var b strings.Builder
	for _, s := range in.normalize() {
		text := html.EscapeString(s.Text)
		if s.Bold {
			b.WriteString("<strong>" + text + "</strong>")
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}

// RenderDocument serializes a whole card: a header holding the title,
// followed by the body markup.
func RenderDocument(d Document) string {
	head := "<header>" + html.EscapeString(d.Title) + "</header>"
	if len(d.Body) == 0 {
		return head
	}
	return head + "\n" + RenderHTML(d.Body)
}

// ParseHTML extracts a fragment from body markup. Unknown elements are
// flattened to their text; it never fails.
func ParseHTML(markup string) Fragment {
	p := &markupParser{}
	p.parse(markup)
	return p.out
}

// ParseDocument extracts the title from the first <header> and the body
// from everything else.
func ParseDocument(markup string) Document {
	p := &markupParser{wantTitle: true}
	p.parse(markup)
	return Document{Title: p.title, Body: p.out}
}

type markupParser struct {
	out       Fragment
	loose     Inline
	wantTitle bool
	title     string
}

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

func (p *markupParser) parse(markup string) {
	p.out = Fragment{}
	nodes, err := html.ParseFragment(strings.NewReader(markup), bodyContext)
	if err != nil {
		return
	}
	for _, n := range nodes {
		p.block(n)
	}
	p.flushLoose()
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func (p *markupParser) block(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.loose = append(p.loose, Span{Text: n.Data})
		return
	case html.ElementNode:
	default:
		return
	}

	if level := headingLevel(n.DataAtom); level > 0 {
		p.flushLoose()
		p.out = append(p.out, Heading(level, inlineOf(n)))
		return
	}

	switch n.DataAtom {
	case atom.P, atom.Pre:
		p.flushLoose()
		if text := inlineOf(n); len(text) > 0 {
			p.out = append(p.out, Paragraph(text))
		}
	case atom.Ul, atom.Ol:
		p.flushLoose()
		list := List(n.DataAtom == atom.Ol)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li {
				list.Items = append(list.Items, inlineOf(c))
			}
		}
		p.out = append(p.out, list)
	case atom.Header:
		if p.wantTitle {
			p.flushLoose()
			p.title = inlineOf(n).String()
			p.wantTitle = false
			return
		}
		p.container(n)
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Body, atom.Html,
		atom.Blockquote, atom.Figure, atom.Aside, atom.Nav, atom.Footer:
		p.container(n)
	case atom.Br, atom.Hr:
		p.flushLoose()
	case atom.Script, atom.Style, atom.Template, atom.Head:
	default:
		p.loose = append(p.loose, collectInline(n, false)...)
	}
}

func (p *markupParser) container(n *html.Node) {
	p.flushLoose()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.block(c)
	}
	p.flushLoose()
}

func (p *markupParser) flushLoose() {
	if text := tidy(p.loose); len(text) > 0 {
		p.out = append(p.out, Paragraph(text))
	}
	p.loose = nil
}

func inlineOf(n *html.Node) Inline {
	var out Inline
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, collectInline(c, false)...)
	}
	return tidy(out)
}

func collectInline(n *html.Node, bold bool) Inline {
	switch n.Type {
	case html.TextNode:
		return Inline{{Text: n.Data, Bold: bold}}
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		bold = true
	case atom.Br:
		return Inline{{Text: wordBreak, Bold: bold}}
	case atom.Script, atom.Style, atom.Template:
		return nil
	}

	// Block children of an inline context (a list nested in an item) still
	// need a word break on both sides.
	var out Inline
	block := isBlock(n.DataAtom)
	if block {
		out = append(out, Span{Text: wordBreak, Bold: bold})
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, collectInline(c, bold)...)
	}
	if block {
		out = append(out, Span{Text: wordBreak, Bold: bold})
	}
	return out
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Li, atom.P, atom.Ul, atom.Ol, atom.Div, atom.Pre, atom.Blockquote:
		return true
	}
	return headingLevel(a) > 0
}
