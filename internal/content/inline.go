package content

import (
	"regexp"
	"strings"
	"unicode"
)

const boldMarker = "**"

// Non-greedy so "**a** and **b**" yields two spans.
var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// EncodeInline renders an inline value with bold spans wrapped in "**".
func EncodeInline(in Inline) string {
	var b strings.Builder
	for _, s := range in.normalize() {
		if s.Bold {
			b.WriteString(boldMarker)
			b.WriteString(s.Text)
			b.WriteString(boldMarker)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// DecodeInline turns each "**x**" pair into a bold span. Unmatched markers
// stay literal and nesting is not recognised.
func DecodeInline(s string) Inline {
	var out Inline
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(s, -1) {
		out = append(out,
			Span{Text: s[last:m[0]]},
			Span{Text: s[m[2]:m[3]], Bold: true},
		)
		last = m[1]
	}
	out = append(out, Span{Text: s[last:]})
	return out.normalize()
}

// wordBreak separates text pulled from neighbouring elements. It counts as
// layout whitespace, so it never doubles a space that is already there.
const wordBreak = "\n"

// tidy trims the ends of a block and collapses whitespace runs that carry
// layout characters (newlines, tabs) into one space. Runs of plain spaces
// are kept as typed, inside the span they came from.
func tidy(in Inline) Inline {
	var out, gap Inline
	layout := false
	for _, s := range in {
		for _, r := range s.Text {
			if unicode.IsSpace(r) {
				gap = append(gap, Span{Text: string(r), Bold: s.Bold})
				layout = layout || isLayoutSpace(r)
				continue
			}
			if len(gap) > 0 && len(out) > 0 {
				if layout {
					gap = Inline{{Text: " ", Bold: gap[0].Bold}}
				}
				out = append(out, gap...)
			}
			gap, layout = nil, false
			out = append(out, Span{Text: string(r), Bold: s.Bold})
		}
	}
	return out.normalize()
}

func isLayoutSpace(r rune) bool {
	switch r {
	case '\n', '\r', '\t', '\f', '\v':
		return true
	}
	return false
}
