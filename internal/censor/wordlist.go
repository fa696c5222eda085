package censor

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed wordlist.yaml
var defaultWordList []byte

// TestToken is the ROT13 form of "automodmute", a harmless word that trips
// tier 1 outside production so moderators can exercise the filter.
const TestToken = "nhgbzbqzhgr"

type Kind int

const (
	Freeform Kind = iota
	Bounded
)

// Tier holds the fragments of one severity bucket. Its position in the
// WordList is the strike weight of each match.
type Tier struct {
	Freeform []string `yaml:"freeform"`
	Bounded  []string `yaml:"bounded"`
}

type WordList struct {
	Tiers []Tier `yaml:"tiers"`
}

func ParseWordList(data []byte) (WordList, error) {
	var list WordList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return WordList{}, fmt.Errorf("parse wordlist: %w", err)
	}
	if len(list.Tiers) == 0 {
		return WordList{}, errors.New("wordlist has no tiers")
	}
	return list, nil
}

func DefaultWordList() (WordList, error) {
	return ParseWordList(defaultWordList)
}

// LoadWordList reads a wordlist file, falling back to the embedded list when
// path is empty.
func LoadWordList(path string) (WordList, error) {
	if path == "" {
		return DefaultWordList()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WordList{}, fmt.Errorf("read wordlist %s: %w", path, err)
	}
	return ParseWordList(data)
}

// Extend returns a copy of the list with fragments appended to the given
// tier, growing the list with empty tiers when needed.
func (w WordList) Extend(tier int, kind Kind, fragments ...string) WordList {
	size := len(w.Tiers)
	if tier >= size {
		size = tier + 1
	}
	out := WordList{Tiers: make([]Tier, size)}
	for i, t := range w.Tiers {
		out.Tiers[i] = Tier{
			Freeform: append([]string(nil), t.Freeform...),
			Bounded:  append([]string(nil), t.Bounded...),
		}
	}
	if tier < 0 {
		return out
	}
	switch kind {
	case Bounded:
		out.Tiers[tier].Bounded = append(out.Tiers[tier].Bounded, fragments...)
	default:
		out.Tiers[tier].Freeform = append(out.Tiers[tier].Freeform, fragments...)
	}
	return out
}
