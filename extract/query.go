package extract

import (
	"strings"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'", "`", "'")

// Normalize applies NFKC, folds apostrophes, lower-cases and collapses
// whitespace.
func Normalize(text string) string {
	text = apostrophes.Replace(norm.NFKC.String(text))
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Query is the working state shared by matchers for one input.
type Query struct {
	Original string
	Text     string
	Tokens   []string

	hits     map[types.Category][]lexicon.Hit
	consumed [][2]int
}

func NewQuery(original string) *Query {
	text := Normalize(original)
	return &Query{
		Original: original,
		Text:     text,
		Tokens:   lexicon.Tokenize(text),
		hits:     make(map[types.Category][]lexicon.Hit),
	}
}

// Hits returns the token spans a lexicon matcher accepted for a category.
func (q *Query) Hits(category types.Category) []lexicon.Hit {
	return q.hits[category]
}

// Consume marks a byte range of Text as owned, so that later matchers do not
// report the same digits again.
func (q *Query) Consume(start, end int) {
	q.consumed = append(q.consumed, [2]int{start, end})
}

func (q *Query) Consumed(start, end int) bool {
	for _, span := range q.consumed {
		if start < span[1] && span[0] < end {
			return true
		}
	}
	return false
}

func overlaps(hit lexicon.Hit, others []lexicon.Hit) bool {
	for _, other := range others {
		if hit.Start < other.End && other.Start < hit.End {
			return true
		}
	}
	return false
}
