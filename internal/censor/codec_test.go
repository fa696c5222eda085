package censor

import "testing"

func TestRot13(t *testing.T) {
	cases := map[string]string{
		"hello":         "uryyb",
		"Hello, World!": "Uryyb, Jbeyq!",
		"(?:ab|c)+":     "(?:no|p)+",
		"卐 123":         "卐 123",
	}
	for in, want := range cases {
		if got := Rot13(in); got != want {
			t.Errorf("Rot13(%q) = %q, want %q", in, got, want)
		}
		if back := Rot13(Rot13(in)); back != in {
			t.Errorf("Rot13 is not an involution for %q: %q", in, back)
		}
	}
}

func TestExpandSubstitutions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain letters", in: "cat", want: "c[*@a]t"},
		{name: "every class", in: "aehilosu", want: "[*@a][*3e][#h][!*1i¡l|][l|][*0o][$5s][*uv]"},
		{name: "space", in: "a b", want: "[*@a][ -]b"},
		{name: "uppercase untouched", in: "CAT", want: "CAT"},
		{name: "escape kept", in: `\s+a`, want: `\s+[*@a]`},
		{name: "escaped backslash", in: `\\a`, want: `\\[*@a]`},
		{name: "groups", in: "(?:x|y)", want: "(?:x|y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandSubstitutions(tt.in); got != tt.want {
				t.Fatalf("ExpandSubstitutions(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeFragment(t *testing.T) {
	if got := DecodeFragment("ung"); got != "[#h][*@a]t" {
		t.Fatalf("DecodeFragment(ung) = %q", got)
	}
	if got := DecodeFragment(TestToken); got != "[*@a][*uv]t[*0o]m[*0o]dm[*uv]t[*3e]" {
		t.Fatalf("DecodeFragment(TestToken) = %q", got)
	}
}
