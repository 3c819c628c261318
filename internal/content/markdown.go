package content

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromMarkdown converts a Markdown document into a card. A leading level-1
// heading becomes the title. Constructs with no card equivalent are reduced
// to paragraphs of their text.
func FromMarkdown(src []byte) Document {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	doc := Document{Body: Fragment{}}
	first := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && first && h.Level == 1 {
			doc.Title = markdownInline(h, src).String()
			first = false
			continue
		}
		first = false
		doc.Body = appendMarkdownBlock(doc.Body, n, src)
	}
	return doc
}

func appendMarkdownBlock(out Fragment, n ast.Node, src []byte) Fragment {
	switch node := n.(type) {
	case *ast.Heading:
		return append(out, Heading(node.Level, markdownInline(node, src)))
	case *ast.Paragraph, *ast.TextBlock:
		if in := markdownInline(n, src); len(in) > 0 {
			out = append(out, Paragraph(in))
		}
		return out
	case *ast.List:
		list := List(node.IsOrdered())
		for li := node.FirstChild(); li != nil; li = li.NextSibling() {
			list.Items = append(list.Items, markdownInline(li, src))
		}
		return append(out, list)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if line := strings.TrimSpace(string(seg.Value(src))); line != "" {
				out = append(out, Paragraph(Plain(line)))
			}
		}
		return out
	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = appendMarkdownBlock(out, c, src)
		}
		return out
	}
	return out
}

func markdownInline(n ast.Node, src []byte) Inline {
	return tidy(collectMarkdown(n, src, false))
}

func collectMarkdown(n ast.Node, src []byte, bold bool) Inline {
	var out Inline
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			out = append(out, Span{Text: string(node.Segment.Value(src)), Bold: bold})
			if node.SoftLineBreak() || node.HardLineBreak() {
				out = append(out, Span{Text: wordBreak, Bold: bold})
			}
		case *ast.String:
			out = append(out, Span{Text: string(node.Value), Bold: bold})
		case *ast.Emphasis:
			out = append(out, collectMarkdown(node, src, bold || node.Level == 2)...)
		case *ast.AutoLink:
			out = append(out, Span{Text: string(node.Label(src)), Bold: bold})
		case *ast.RawHTML:
		default:
			out = append(out, collectMarkdown(c, src, bold)...)
			if c.Type() == ast.TypeBlock {
				out = append(out, Span{Text: wordBreak, Bold: bold})
			}
		}
	}
	return out
}

// ToMarkdown writes a document as Markdown: the title as a level-1 heading,
// bullets as "- " items. Bold is the only inline style and is already
// Markdown-compatible.
func ToMarkdown(d Document) string {
	var blocks []string
	if d.Title != "" {
		blocks = append(blocks, "# "+d.Title)
	}
	for _, n := range d.Body {
		if n.Kind != KindList {
			blocks = append(blocks, encodeNode(n))
			continue
		}
		lines := make([]string, len(n.Items))
		for i, it := range n.Items {
			marker := "-"
			if n.Ordered {
				marker = strconv.Itoa(i+1) + "."
			}
			lines[i] = marker + " " + EncodeInline(it)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
