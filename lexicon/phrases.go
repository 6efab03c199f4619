package lexicon

import (
	"regexp"
	"strings"

	"github.com/Kuljeet1998/healthcare-nlp/utils"
)

// TokenPattern splits lower-cased text into word tokens. Inner apostrophes and
// hyphens stay part of the token ("can't", "follow-up").
var TokenPattern = regexp.MustCompile(`[a-z0-9]+(?:['-][a-z0-9]+)*`)

func Tokenize(text string) []string {
	return TokenPattern.FindAllString(text, -1)
}

// Hit is a phrase found in a token slice, covering tokens [Start, End).
type Hit struct {
	Value string
	Start int
	End   int
}

// PhraseSet matches multi-word phrases against tokens. Each phrase maps to a
// value, which is the phrase itself for plain keyword lists and the canonical
// concept name for concept tables.
type PhraseSet struct {
	tree    *utils.StringPrefixTree
	phrases []string
}

func NewPhraseSet(phrases ...string) *PhraseSet {
	ps := &PhraseSet{tree: utils.NewStringPrefixTree()}
	for _, phrase := range phrases {
		ps.add(phrase, phrase)
	}
	return ps
}

func (ps *PhraseSet) add(phrase string, value string) {
	tokens := Tokenize(strings.ToLower(phrase))
	if len(tokens) == 0 {
		return
	}
	before := ps.tree.Len()
	ps.tree.Add(tokens, value)
	if ps.tree.Len() > before {
		ps.phrases = append(ps.phrases, phrase)
	}
}

func (ps *PhraseSet) Phrases() []string {
	return append([]string(nil), ps.phrases...)
}

func (ps *PhraseSet) Len() int {
	return len(ps.phrases)
}

// All returns every occurrence of every phrase, overlaps included, ordered by
// start token and then by length.
func (ps *PhraseSet) All(tokens []string) []Hit {
	var hits []Hit
	for i := range tokens {
		ps.tree.Walk(tokens[i:], func(length int, value string) {
			hits = append(hits, Hit{Value: value, Start: i, End: i + length})
		})
	}
	return hits
}

// Longest scans left to right and keeps the longest phrase at each position,
// skipping tokens already covered by an earlier hit.
func (ps *PhraseSet) Longest(tokens []string) []Hit {
	var hits []Hit
	for i := 0; i < len(tokens); {
		length, value := ps.tree.LongestMatch(tokens[i:])
		if length == 0 {
			i++
			continue
		}
		hits = append(hits, Hit{Value: value, Start: i, End: i + length})
		i += length
	}
	return hits
}

func (ps *PhraseSet) Any(tokens []string) bool {
	for i := range tokens {
		if n, _ := ps.tree.LongestMatch(tokens[i:]); n > 0 {
			return true
		}
	}
	return false
}

// Distinct returns hit values once each, keeping the order of hits.
func Distinct(hits []Hit) []string {
	seen := make(map[string]bool, len(hits))
	var out []string
	for _, h := range hits {
		if seen[h.Value] {
			continue
		}
		seen[h.Value] = true
		out = append(out, h.Value)
	}
	return out
}
