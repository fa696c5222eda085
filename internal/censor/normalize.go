package censor

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	reFence     = regexp.MustCompile("```[\\w+-]*\\n?")
	reCodeTicks = regexp.MustCompile("`+")
	reLink      = regexp.MustCompile(`\[([^\]\n]*)\]\(\s*<?([^)\s>]*)>?\s*\)`)
	reHeading   = regexp.MustCompile(`(?m)^[ \t]*#{1,3}[ \t]+`)
	reSubtext   = regexp.MustCompile(`(?m)^[ \t]*-#[ \t]+`)
	reQuote     = regexp.MustCompile(`(?m)^[ \t]*>{1,3}[ \t]?`)
	reEscape    = regexp.MustCompile("\\\\([*_~|`>#\\[\\]()-])")

	// Single emphasis only counts when the delimiters sit on word edges, so
	// "f*ck" keeps its asterisk for the substitution classes.
	reItalic = regexp.MustCompile(`(^|\s)[*_]([^\s*_](?:[^*_\n]*[^\s*_])?)[*_]($|\s|[.,!?;:])`)

	rePaired = []*regexp.Regexp{
		regexp.MustCompile(`\*\*(.+?)\*\*`),
		regexp.MustCompile(`__(.+?)__`),
		regexp.MustCompile(`~~(.+?)~~`),
		regexp.MustCompile(`\|\|(.+?)\|\|`),
	}
)

var homoglyphs = map[rune]rune{
	// Cyrillic
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'у': 'y', 'х': 'x',
	'і': 'i', 'ј': 'j', 'ѕ': 's', 'һ': 'h', 'ԁ': 'd', 'ԛ': 'q', 'ԝ': 'w',
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H', 'О': 'O',
	'Р': 'P', 'С': 'C', 'Т': 'T', 'Х': 'X', 'І': 'I', 'Ѕ': 'S', 'Ј': 'J',
	// Greek
	'α': 'a', 'ο': 'o', 'ν': 'v', 'ι': 'i', 'κ': 'k', 'τ': 't',
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Ζ': 'Z', 'Η': 'H', 'Ι': 'I', 'Κ': 'K',
	'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'Ρ': 'P', 'Τ': 'T', 'Υ': 'Y', 'Χ': 'X',
	// Latin lookalikes
	'ɡ': 'g', 'ı': 'i', 'ȷ': 'j', 'ł': 'l', 'ø': 'o', 'đ': 'd', 'ħ': 'h',
}

// Normalize prepares text for matching: markdown is stripped first so
// formatting cannot split a word, then confusable characters are folded.
func Normalize(raw string) string {
	return FoldConfusables(StripMarkdown(raw))
}

// StripMarkdown removes Discord markdown syntax while keeping the visible text.
func StripMarkdown(text string) string {
	if text == "" {
		return ""
	}
	out := reFence.ReplaceAllString(text, "")
	out = reCodeTicks.ReplaceAllString(out, "")
	out = reLink.ReplaceAllString(out, "$1 $2")
	for _, re := range rePaired {
		out = re.ReplaceAllString(out, "$1")
	}
	out = reItalic.ReplaceAllString(out, "$1$2$3")
	out = reHeading.ReplaceAllString(out, "")
	out = reSubtext.ReplaceAllString(out, "")
	out = reQuote.ReplaceAllString(out, "")
	return reEscape.ReplaceAllString(out, "$1")
}

// FoldConfusables maps fullwidth forms to ASCII, drops combining marks and
// invisible characters, and replaces common homoglyphs with Latin letters.
func FoldConfusables(text string) string {
	text = strings.ToValidUTF8(text, "\ufffd")
	chain := transform.Chain(
		width.Fold,
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(isInvisible)),
		runes.Map(foldHomoglyph),
		norm.NFC,
	)
	folded, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}
	return folded
}

func foldHomoglyph(r rune) rune {
	if mapped, ok := homoglyphs[r]; ok {
		return mapped
	}
	return r
}

func isInvisible(r rune) bool {
	switch r {
	case '\u00ad', '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return false
}
