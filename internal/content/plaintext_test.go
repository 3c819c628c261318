package content

import (
	"encoding/json"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Fragment
	}{
		{
			name: "empty",
			in:   "",
			want: Fragment{},
		},
		{
			name: "only blank lines",
			in:   "\n  \n\t\n",
			want: Fragment{},
		},
		{
			name: "heading then paragraph",
			in:   "## Plan\n\nBody text.",
			want: Fragment{Heading(2, Plain("Plan")), Paragraph(Plain("Body text."))},
		},
		{
			name: "bullet list closed by blank line",
			in:   "• one\n• two\n\nAfter.",
			want: Fragment{List(false, Plain("one"), Plain("two")), Paragraph(Plain("After."))},
		},
		{
			name: "bold at start",
			in:   "**Important** note here.",
			want: Fragment{Paragraph(Concat(Strong("Important"), Plain(" note here.")))},
		},
		{
			name: "mixed markers continue first kind",
			in:   "1. first\n• second",
			want: Fragment{List(true, Plain("first"), Plain("second"))},
		},
		{
			name: "bullet first then number",
			in:   "• first\n7. second",
			want: Fragment{List(false, Plain("first"), Plain("second"))},
		},
		{
			name: "paragraph closes list without blank line",
			in:   "• a\nplain line\n• b",
			want: Fragment{List(false, Plain("a")), Paragraph(Plain("plain line")), List(false, Plain("b"))},
		},
		{
			name: "heading closes list",
			in:   "1. a\n# Next",
			want: Fragment{List(true, Plain("a")), Heading(1, Plain("Next"))},
		},
		{
			name: "consecutive paragraphs",
			in:   "first\nsecond",
			want: Fragment{Paragraph(Plain("first")), Paragraph(Plain("second"))},
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "   ###   Deep   \n\t• item  ",
			want: Fragment{Heading(3, Plain("Deep")), List(false, Plain("item"))},
		},
		{
			name: "crlf line endings",
			in:   "# Title\r\n\r\nBody\r\n",
			want: Fragment{Heading(1, Plain("Title")), Paragraph(Plain("Body"))},
		},
		{
			name: "seven hashes is a paragraph",
			in:   "####### too deep",
			want: Fragment{Paragraph(Plain("####### too deep"))},
		},
		{
			name: "hash without space is a paragraph",
			in:   "#hashtag",
			want: Fragment{Paragraph(Plain("#hashtag"))},
		},
		{
			name: "bare hashes are an empty heading",
			in:   "##",
			want: Fragment{Heading(2, nil)},
		},
		{
			name: "decimal number is a paragraph",
			in:   "1.5 apples",
			want: Fragment{Paragraph(Plain("1.5 apples"))},
		},
		{
			name: "bullet without space",
			in:   "•tight",
			want: Fragment{List(false, Plain("tight"))},
		},
		{
			name: "irregular numbering",
			in:   "3. c\n9. d",
			want: Fragment{List(true, Plain("c"), Plain("d"))},
		},
		{
			name: "bold inside heading and item",
			in:   "# A **big** deal\n• **x**",
			want: Fragment{
				Heading(1, Concat(Plain("A "), Strong("big"), Plain(" deal"))),
				List(false, Strong("x")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.in)
			if !Equal(got, tt.want) {
				t.Errorf("Decode(%q) = %s, want %s", tt.in, dump(got), dump(tt.want))
			}
		})
	}
}

func TestDecode_EmptyIsNonNil(t *testing.T) {
	if got := Decode(""); got == nil || len(got) != 0 {
		t.Errorf("Decode(\"\") = %#v, want empty non-nil fragment", got)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   Fragment
		want string
	}{
		{"nil", nil, ""},
		{"empty", Fragment{}, ""},
		{
			name: "bold paragraph",
			in:   Fragment{Paragraph(Concat(Strong("Important"), Plain(" note here.")))},
			want: "**Important** note here.",
		},
		{
			name: "heading and paragraph",
			in:   Fragment{Heading(2, Plain("Plan")), Paragraph(Plain("Body text."))},
			want: "## Plan\n\nBody text.",
		},
		{
			name: "ordered list numbered from one",
			in:   Fragment{List(true, Plain("a"), Plain("b"), Plain("c"))},
			want: "1. a\n2. b\n3. c",
		},
		{
			name: "bullet list",
			in:   Fragment{List(false, Plain("one"), Plain("two"))},
			want: "• one\n• two",
		},
		{
			name: "heading level clamped",
			in:   Fragment{Heading(9, Plain("x")), Heading(0, Plain("y"))},
			want: "###### x\n\n# y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func roundTripFixtures() map[string]Fragment {
	return map[string]Fragment{
		"mixed blocks": {
			Heading(1, Plain("Launch")),
			Paragraph(Concat(Plain("Ship on "), Strong("Friday"), Plain("."))),
			List(true, Plain("draft"), Concat(Strong("review"), Plain(" twice"))),
			Heading(3, Plain("Notes")),
			Paragraph(Plain("done")),
		},
		"adjacent lists": {
			List(false, Plain("a"), Plain("b")),
			List(true, Plain("c")),
			List(false, Plain("d")),
		},
		"all heading levels": {
			Heading(1, Plain("h1")), Heading(2, Plain("h2")), Heading(3, Plain("h3")),
			Heading(4, Plain("h4")), Heading(5, Plain("h5")), Heading(6, Plain("h6")),
		},
		"two bold spans": {
			Paragraph(Concat(Strong("a"), Plain(" and "), Strong("b"))),
		},
		"empty list item": {
			List(false, Plain("x"), nil, Plain("y")),
		},
		"interior spaces": {
			Paragraph(Plain("Total:  42 items")),
			List(false, Concat(Strong("a  b"), Plain("   c"))),
		},
		"heading after list": {
			List(false, Plain("x")),
			Heading(2, Plain("After")),
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for name, f := range roundTripFixtures() {
		t.Run(name, func(t *testing.T) {
			text := Encode(f)
			if got := Decode(text); !Equal(got, f) {
				t.Errorf("Decode(Encode(f)) = %s\nwant %s\ntext %q", dump(got), dump(f), text)
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"3. c\n9. d\n• e",
		"####### deep\n# shallow",
		"**a** **b\n\n\n• x",
		"  messy   \n1.\n•\n##",
	}
	for _, in := range inputs {
		once := Decode(Encode(Decode(in)))
		twice := Decode(Encode(once))
		if !Equal(once, twice) {
			t.Errorf("not idempotent for %q:\n once %s\ntwice %s", in, dump(once), dump(twice))
		}
	}
}

func dump(f Fragment) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// The convention has no escape, so paragraph text that starts with a marker
// reads back as the block the marker names.
func TestRoundTrip_MarkerLeadingParagraphs(t *testing.T) {
	tests := []struct {
		text string
		want Node
	}{
		{"• not an item", List(false, Plain("not an item"))},
		{"# not a heading", Heading(1, Plain("not a heading"))},
		{"2. not a step", List(true, Plain("not a step"))},
	}
	for _, tt := range tests {
		got := Decode(Encode(Fragment{Paragraph(Plain(tt.text))}))
		if !Equal(got, Fragment{tt.want}) {
			t.Errorf("Decode(Encode(Paragraph(%q))) = %s, want %s", tt.text, dump(got), dump(Fragment{tt.want}))
		}
	}
}
