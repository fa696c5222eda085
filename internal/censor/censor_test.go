package censor

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// testList is a harmless stand-in for the real wordlist.
func testList() WordList {
	return WordList{Tiers: []Tier{
		{Freeform: []string{Rot13("app")}, Bounded: []string{Rot13("kiwi")}},
		{Freeform: []string{Rot13("plum")}, Bounded: []string{Rot13("apple")}},
		{Bounded: []string{Rot13("grape")}},
	}}
}

func newTestCensor(t *testing.T, list WordList) *Censor {
	t.Helper()
	c, err := FromWordList(list)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return c
}

func TestScanCleanText(t *testing.T) {
	c := newTestCensor(t, testList())
	res, ok := c.Scan("the weather is nice today")
	if ok {
		t.Fatalf("expected no violation, got %+v", res)
	}
	if res.Strikes != 0 {
		t.Fatalf("expected zero strikes, got %d", res.Strikes)
	}
}

func TestScanWeights(t *testing.T) {
	c := newTestCensor(t, testList())
	tests := []struct {
		name     string
		in       string
		strikes  int
		censored string
		tier     int
		word     string
	}{
		{name: "tier 2 bounded", in: "you are a grape", strikes: 2, censored: "you are a g####", tier: 2, word: "grape"},
		{name: "tier 0 bounded is free", in: "i like kiwi", strikes: 0, censored: "i like k###", tier: 0, word: "kiwi"},
		{name: "tier 1 freeform inside word", in: "call a plumber", strikes: 1, censored: "call a p###ber", tier: 1, word: "plum"},
		{name: "case insensitive", in: "GRAPE", strikes: 2, censored: "G####", tier: 2, word: "GRAPE"},
		{name: "leetspeak", in: "gr@p3", strikes: 2, censored: "g####", tier: 2, word: "gr@p3"},
		{name: "markdown", in: "**grape**", strikes: 2, censored: "g####", tier: 2, word: "grape"},
		{name: "homoglyph", in: "gr\u0430pe", strikes: 2, censored: "g####", tier: 2, word: "grape"},
		{name: "zero width", in: "gra\u200bpe", strikes: 2, censored: "g####", tier: 2, word: "grape"},
		{name: "fullwidth", in: "ｇｒａｐｅ", strikes: 2, censored: "g####", tier: 2, word: "grape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := c.Scan(tt.in)
			if !ok {
				t.Fatalf("expected violation for %q", tt.in)
			}
			if res.Strikes != tt.strikes {
				t.Fatalf("strikes = %d, want %d", res.Strikes, tt.strikes)
			}
			if res.Censored != tt.censored {
				t.Fatalf("censored = %q, want %q", res.Censored, tt.censored)
			}
			if len(res.Matches[tt.tier]) != 1 || res.Matches[tt.tier][0] != tt.word {
				t.Fatalf("tier %d matches = %v, want [%s]", tt.tier, res.Matches[tt.tier], tt.word)
			}
		})
	}
}

func TestScanBoundedNeedsWholeWord(t *testing.T) {
	c := newTestCensor(t, testList())
	if res, ok := c.Scan("kiwifruit and grapefruit"); ok {
		t.Fatalf("bounded words matched inside other words: %+v", res)
	}
}

func TestScanAccumulatesStrikes(t *testing.T) {
	c := newTestCensor(t, testList())
	res, ok := c.Scan("grape grape plum kiwi")
	if !ok {
		t.Fatal("expected violation")
	}
	if res.Strikes != 5 {
		t.Fatalf("strikes = %d, want 5", res.Strikes)
	}
	if got := strings.Join(res.Words(), ","); got != "kiwi,plum,grape,grape" {
		t.Fatalf("words = %s", got)
	}
	if res.Evidence() != "kiwi, plum, grape, grape" {
		t.Fatalf("evidence = %q", res.Evidence())
	}
}

func TestScanEarlierTierWinsOverlap(t *testing.T) {
	c := newTestCensor(t, testList())
	res, ok := c.Scan("apple")
	if !ok {
		t.Fatal("expected tier 0 match")
	}
	if res.Strikes != 0 {
		t.Fatalf("strikes = %d, want 0", res.Strikes)
	}
	if len(res.Matches[0]) != 1 || res.Matches[0][0] != "app" {
		t.Fatalf("tier 0 matches = %v", res.Matches[0])
	}
	if len(res.Matches[1]) != 0 {
		t.Fatalf("tier 1 should not match a masked span, got %v", res.Matches[1])
	}
	if res.Censored != "a##le" {
		t.Fatalf("censored = %q", res.Censored)
	}
}

func TestScanPreservesLength(t *testing.T) {
	c := newTestCensor(t, testList())
	inputs := []string{
		"grape",
		"**plum** pie and ~~kiwi~~",
		"卐 grape 🖕 apple",
		"ｇｒａｐｅ juice",
		"[grape](https://example.com/apple)",
	}
	for _, in := range inputs {
		res, ok := c.Scan(in)
		if !ok {
			t.Fatalf("expected violation for %q", in)
		}
		got := utf8.RuneCountInString(res.Censored)
		want := utf8.RuneCountInString(Normalize(in))
		if got != want {
			t.Fatalf("censored %q has %d runes, normalized input has %d", res.Censored, got, want)
		}
	}
}

func TestScanLookahead(t *testing.T) {
	list := WordList{Tiers: []Tier{{}, {Freeform: []string{Rot13("ban(?!ana)")}}}}
	c := newTestCensor(t, list)
	if _, ok := c.Scan("banana bread"); ok {
		t.Fatal("lookahead should exclude banana")
	}
	res, ok := c.Scan("ban the user")
	if !ok || res.Strikes != 1 {
		t.Fatalf("expected one tier 1 strike, got %+v ok=%v", res, ok)
	}
}

func TestCompileRejectsMalformedFragment(t *testing.T) {
	list := WordList{Tiers: []Tier{{}, {Freeform: []string{Rot13("(unclosed")}}}}
	_, err := Compile(list)
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !strings.Contains(err.Error(), "tier 1") {
		t.Fatalf("error should name the tier: %v", err)
	}
}

func TestTierSource(t *testing.T) {
	tier := Tier{Freeform: []string{"png"}, Bounded: []string{"qbt", "pbj"}}
	want := `c[*@a]t|\b(?:d[*0o]g|c[*0o]w)\b`
	if got := TierSource(tier); got != want {
		t.Fatalf("TierSource = %q, want %q", got, want)
	}
	if got := TierSource(Tier{Bounded: []string{"qbt"}}); got != `\b(?:d[*0o]g)\b` {
		t.Fatalf("bounded only = %q", got)
	}
	if got := TierSource(Tier{}); got != "" {
		t.Fatalf("empty tier = %q", got)
	}
}

func TestExtendWithTestToken(t *testing.T) {
	base := testList()
	extended := base.Extend(1, Freeform, TestToken)
	if len(base.Tiers[1].Freeform) != 1 {
		t.Fatal("Extend mutated the original list")
	}
	c := newTestCensor(t, extended)
	res, ok := c.Scan("automodmute")
	if !ok || res.Strikes != 1 {
		t.Fatalf("expected test token to score 1, got %+v ok=%v", res, ok)
	}
}

func TestExtendGrowsTiers(t *testing.T) {
	list := WordList{}.Extend(2, Bounded, Rot13("grape"))
	if len(list.Tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(list.Tiers))
	}
	c := newTestCensor(t, list)
	if res, ok := c.Scan("grape"); !ok || res.Strikes != 2 {
		t.Fatalf("unexpected result %+v ok=%v", res, ok)
	}
}

func TestDefaultWordListCompiles(t *testing.T) {
	list, err := DefaultWordList()
	if err != nil {
		t.Fatalf("default wordlist: %v", err)
	}
	if len(list.Tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(list.Tiers))
	}
	c := newTestCensor(t, list)
	if _, ok := c.Scan("hello world, have a nice day"); ok {
		t.Fatal("clean text flagged")
	}
	res, ok := c.Scan(Rot13("shpx guvf"))
	if !ok || res.Strikes != 1 {
		t.Fatalf("expected one tier 1 strike, got %+v ok=%v", res, ok)
	}
	if res.Censored != "f### this" {
		t.Fatalf("censored = %q", res.Censored)
	}
}

func TestParseWordListRequiresTiers(t *testing.T) {
	if _, err := ParseWordList([]byte("tiers: []\n")); err == nil {
		t.Fatal("expected error for empty wordlist")
	}
}
