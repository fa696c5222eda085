package censor

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	matchOptions = regexp2.IgnoreCase | regexp2.ECMAScript
	matchTimeout = 250 * time.Millisecond
	maskRune     = '#'
)

// CompiledTier is the matcher for one wordlist tier. Weight equals the tier
// index. A tier without fragments never matches.
type CompiledTier struct {
	Weight int
	re     *regexp2.Regexp
}

// Compile builds one matcher per tier, preserving tier order. Any fragment
// that fails to compile is reported with its tier and position.
func Compile(list WordList) ([]CompiledTier, error) {
	tiers := make([]CompiledTier, 0, len(list.Tiers))
	for i, tier := range list.Tiers {
		if err := validateFragments(i, "freeform", tier.Freeform); err != nil {
			return nil, err
		}
		if err := validateFragments(i, "bounded", tier.Bounded); err != nil {
			return nil, err
		}

		compiled := CompiledTier{Weight: i}
		if src := TierSource(tier); src != "" {
			re, err := regexp2.Compile(src, matchOptions)
			if err != nil {
				return nil, fmt.Errorf("compile tier %d: %w", i, err)
			}
			re.MatchTimeout = matchTimeout
			compiled.re = re
		}
		tiers = append(tiers, compiled)
	}
	return tiers, nil
}

// TierSource returns the combined regex source of a tier: freeform fragments
// anywhere, or bounded fragments between word boundaries.
func TierSource(tier Tier) string {
	var parts []string
	if free := joinDecoded(tier.Freeform); free != "" {
		parts = append(parts, free)
	}
	if bounded := joinDecoded(tier.Bounded); bounded != "" {
		parts = append(parts, `\b(?:`+bounded+`)\b`)
	}
	return strings.Join(parts, "|")
}

func joinDecoded(fragments []string) string {
	decoded := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		decoded = append(decoded, DecodeFragment(fragment))
	}
	return strings.Join(decoded, "|")
}

func validateFragments(tier int, kind string, fragments []string) error {
	for i, fragment := range fragments {
		if fragment == "" {
			continue
		}
		if _, err := regexp2.Compile(DecodeFragment(fragment), matchOptions); err != nil {
			return fmt.Errorf("tier %d %s fragment %d: %w", tier, kind, i, err)
		}
	}
	return nil
}

// mask replaces every match in text and returns the original matched
// substrings in order. A match timeout leaves the text untouched.
func (t CompiledTier) mask(text string) (string, []string) {
	if t.re == nil || text == "" {
		return text, nil
	}
	var found []string
	out, err := t.re.ReplaceFunc(text, func(m regexp2.Match) string {
		matched := m.String()
		found = append(found, matched)
		return maskWord(matched)
	}, -1, -1)
	if err != nil {
		return text, nil
	}
	return out, found
}

func maskWord(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if size == 0 {
		return word
	}
	rest := utf8.RuneCountInString(word) - 1
	return string(first) + strings.Repeat(string(maskRune), rest)
}
