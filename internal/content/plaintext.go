package content

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	MaxHeadingLevel = 6
	bullet          = "•"
)

var (
	// A run of more than six '#' fails the whitespace check and falls
	// through to a paragraph.
	headingLine = regexp.MustCompile(`^(#{1,6})(?:\s+|$)`)
	bulletLine  = regexp.MustCompile(`^•\s*`)
	// "1.5 apples" is a sentence, not an item.
	orderedLine = regexp.MustCompile(`^\d+\.(?:\s+|$)`)
)

// Encode renders a fragment in the plain-text convention.
//
// Blocks are separated by a blank line and list items sit on consecutive
// lines, so two neighbouring lists stay two lists after Decode.
func Encode(f Fragment) string {
	blocks := make([]string, 0, len(f))
	for _, n := range f {
		blocks = append(blocks, encodeNode(n))
	}
	return strings.Join(blocks, "\n\n")
}

func encodeNode(n Node) string {
	switch n.Kind {
	case KindHeading:
		return strings.Repeat("#", clampLevel(n.Level)) + " " + EncodeInline(n.Text)
	case KindList:
		lines := make([]string, len(n.Items))
		for i, it := range n.Items {
			marker := bullet
			if n.Ordered {
				marker = strconv.Itoa(i+1) + "."
			}
			lines[i] = marker + " " + EncodeInline(it)
		}
		return strings.Join(lines, "\n")
	default:
		return EncodeInline(n.Text)
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

// Decode parses the plain-text convention into a fragment. It accepts any
// input: every line is classified as a heading, a list item or a paragraph.
func Decode(text string) Fragment {
	out := Fragment{}
	var open *Node

	flush := func() {
		if open != nil {
			out = append(out, *open)
			open = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}

		if m := headingLine.FindStringSubmatchIndex(line); m != nil {
			flush()
			out = append(out, Heading(m[3]-m[2], DecodeInline(line[m[1]:])))
			continue
		}

		if ordered, rest, ok := listItem(line); ok {
			// The first item fixes the list kind; later markers only continue it.
			if open == nil {
				n := List(ordered)
				open = &n
			}
			open.Items = append(open.Items, DecodeInline(rest))
			continue
		}

		flush()
		out = append(out, Paragraph(DecodeInline(line)))
	}
	flush()

	return out
}

func listItem(line string) (ordered bool, rest string, ok bool) {
	if loc := bulletLine.FindStringIndex(line); loc != nil {
		return false, line[loc[1]:], true
	}
	if loc := orderedLine.FindStringIndex(line); loc != nil {
		return true, line[loc[1]:], true
	}
	return false, "", false
}
