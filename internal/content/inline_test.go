package content

import "testing"

func TestDecodeInline(t *testing.T) {
	tests := []struct {
		in   string
		want Inline
	}{
		{"", nil},
		{"plain", Plain("plain")},
		{"**all**", Strong("all")},
		{"**a** and **b**", Concat(Strong("a"), Plain(" and "), Strong("b"))},
		{"unmatched ** stays", Plain("unmatched ** stays")},
		{"**open only", Plain("**open only")},
		{"****", Plain("****")},
		{"x **y** z **", Concat(Plain("x "), Strong("y"), Plain(" z **"))},
		{"**a****b**", Strong("ab")},
	}

	for _, tt := range tests {
		got := DecodeInline(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("DecodeInline(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestEncodeInline(t *testing.T) {
	tests := []struct {
		in   Inline
		want string
	}{
		{nil, ""},
		{Plain("x"), "x"},
		{Concat(Plain("a "), Strong("b"), Plain(" c")), "a **b** c"},
		{Inline{{Text: ""}, {Text: "q", Bold: true}, {Text: "", Bold: true}}, "**q**"},
	}

	for _, tt := range tests {
		if got := EncodeInline(tt.in); got != tt.want {
			t.Errorf("EncodeInline(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInlineString(t *testing.T) {
	in := Concat(Plain("see "), Strong("this"))
	if got := in.String(); got != "see this" {
		t.Errorf("String() = %q, want %q", got, "see this")
	}
}

func TestTidy(t *testing.T) {
	tests := []struct {
		name string
		in   Inline
		want Inline
	}{
		{"collapse layout runs", Inline{{Text: "  a \n\t b  "}}, Plain("a b")},
		{"typed spaces kept", Inline{{Text: "Total:  42   items"}}, Plain("Total:  42   items")},
		{"space stays before bold", Inline{{Text: "a "}, {Text: "b", Bold: true}}, Concat(Plain("a "), Strong("b"))},
		{"space stays after bold", Inline{{Text: "a", Bold: true}, {Text: " b"}}, Concat(Strong("a"), Plain(" b"))},
		{"leading space in bold stays bold", Inline{{Text: "a"}, {Text: " b", Bold: true}}, Concat(Plain("a"), Strong(" b"))},
		{"word break between elements", Inline{{Text: "outer"}, {Text: wordBreak}, {Text: wordBreak}, {Text: "inner"}}, Plain("outer inner")},
		{"only whitespace", Inline{{Text: " \n "}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tidy(tt.in); !got.Equal(tt.want) {
				t.Errorf("tidy() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// A closing marker is the first "**" after the opening one, so a bold span
// ending in "*" gives its last star away.
func TestEncodeInline_TrailingStarInBold(t *testing.T) {
	in := Concat(Strong("a*"), Plain(" b"))
	text := EncodeInline(in)
	if text != "**a*** b" {
		t.Fatalf("EncodeInline() = %q", text)
	}
	want := Concat(Strong("a"), Plain("* b"))
	if got := DecodeInline(text); !got.Equal(want) {
		t.Errorf("DecodeInline(%q) = %#v, want %#v", text, got, want)
	}

	lead := Strong("*a")
	if got := DecodeInline(EncodeInline(lead)); !got.Equal(lead) {
		t.Errorf("leading star in bold = %#v, want %#v", got, lead)
	}
}
