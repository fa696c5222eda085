package censor

import "testing"

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold", in: "**bold**", want: "bold"},
		{name: "underline", in: "__under__", want: "under"},
		{name: "strike", in: "~~gone~~", want: "gone"},
		{name: "spoiler", in: "||hidden||", want: "hidden"},
		{name: "italic", in: "*soft* words", want: "soft words"},
		{name: "bold italic", in: "***both***", want: "both"},
		{name: "asterisk inside word", in: "f*ck", want: "f*ck"},
		{name: "inline code", in: "`code`", want: "code"},
		{name: "fence", in: "```go\nfmt\n```", want: "fmt\n"},
		{name: "masked link", in: "[click](https://example.com)", want: "click https://example.com"},
		{name: "heading", in: "# Title", want: "Title"},
		{name: "subtext", in: "-# small", want: "small"},
		{name: "quote", in: "> quoted\n>>> more", want: "quoted\nmore"},
		{name: "escapes", in: `\*not italic\*`, want: "*not italic*"},
		{name: "split word", in: "gr**ap**e", want: "grape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdown(tt.in); got != tt.want {
				t.Fatalf("StripMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFoldConfusables(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "fullwidth", in: "ｈｅｌｌｏ", want: "hello"},
		{name: "accents", in: "café naïve", want: "cafe naive"},
		{name: "zero width", in: "he\u200bl\u200dlo", want: "hello"},
		{name: "soft hyphen", in: "hel\u00adlo", want: "hello"},
		{name: "cyrillic", in: "\u0440\u0430\u0443", want: "pay"},
		{name: "greek", in: "\u03bf\u03ba", want: "ok"},
		{name: "symbols kept", in: "卐 🖕 #", want: "卐 🖕 #"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FoldConfusables(tt.in); got != tt.want {
				t.Fatalf("FoldConfusables(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("Normalize(\"\") = %q", got)
	}
	if got := Normalize("\xff**ok**"); got != "\ufffdok" {
		t.Fatalf("Normalize with invalid utf8 = %q", got)
	}
}
