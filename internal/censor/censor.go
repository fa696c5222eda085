package censor

import "strings"

// Result is the outcome of a scan that matched at least one tier.
type Result struct {
	Censored string
	Strikes  int
	// Matches holds the original matched substrings, indexed by tier.
	Matches [][]string
}

// Words flattens Matches in tier order.
func (r Result) Words() []string {
	var words []string
	for _, tier := range r.Matches {
		words = append(words, tier...)
	}
	return words
}

func (r Result) Evidence() string {
	return strings.Join(r.Words(), ", ")
}

// Censor masks and scores text against compiled tiers. It is immutable and
// safe for concurrent use.
type Censor struct {
	tiers []CompiledTier
}

func New(tiers []CompiledTier) *Censor {
	return &Censor{tiers: append([]CompiledTier(nil), tiers...)}
}

// FromWordList compiles list and wraps it in a Censor.
func FromWordList(list WordList) (*Censor, error) {
	tiers, err := Compile(list)
	if err != nil {
		return nil, err
	}
	return New(tiers), nil
}

func (c *Censor) Tiers() int {
	return len(c.tiers)
}

// Scan normalizes text and masks it tier by tier. Each tier sees the output
// of the previous ones, so a span masked by an earlier tier is not counted
// again. The boolean is false when nothing matched.
func (c *Censor) Scan(text string) (Result, bool) {
	censored := Normalize(text)
	matches := make([][]string, len(c.tiers))
	strikes, total := 0, 0
	for i, tier := range c.tiers {
		var found []string
		censored, found = tier.mask(censored)
		matches[i] = found
		strikes += len(found) * tier.Weight
		total += len(found)
	}
	if total == 0 {
		return Result{}, false
	}
	return Result{Censored: censored, Strikes: strikes, Matches: matches}, true
}
