package censor

import "strings"

// substitutions maps a plaintext letter to the class of characters commonly
// typed in its place.
var substitutions = map[rune]string{
	'a': "[*@a]",
	'e': "[*3e]",
	'h': "[#h]",
	'i': "[!*1i¡l|]",
	'l': "[l|]",
	'o': "[*0o]",
	's': "[$5s]",
	'u': "[*uv]",
	' ': "[ -]",
}

// Rot13 rotates ASCII letters by 13 places. It is its own inverse.
func Rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		default:
			return r
		}
	}, s)
}

// ExpandSubstitutions widens every substitutable lowercase letter (and space)
// of a regex source into its leetspeak class. The rune after a backslash is
// left alone so escapes survive.
func ExpandSubstitutions(src string) string {
	var b strings.Builder
	b.Grow(len(src) * 2)
	escaped := false
	for _, r := range src {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			b.WriteRune(r)
			escaped = true
			continue
		}
		if class, ok := substitutions[r]; ok {
			b.WriteString(class)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DecodeFragment turns a stored fragment into regex source.
func DecodeFragment(fragment string) string {
	return ExpandSubstitutions(Rot13(fragment))
}
