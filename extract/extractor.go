package extract

import (
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

// Matcher fills one or more entity categories from a query. Matchers never
// fail; finding nothing leaves the set untouched.
type Matcher interface {
	Name() string
	Match(q *Query, set *types.EntitySet)
}

type Extractor struct {
	matchers []Matcher
}

// DefaultMatchers returns the built-in matchers in evaluation order. Order
// matters: patient ids and time periods consume digits before the numeric
// matcher runs, and conditions shadow observations.
func DefaultMatchers(lex *lexicon.Lexicon) []Matcher {
	return []Matcher{
		NewLexiconMatcher(lex, types.CategoryConditions),
		NewLexiconMatcher(lex, types.CategoryObservations, types.CategoryConditions),
		NewLexiconMatcher(lex, types.CategoryMedications),
		NewLexiconMatcher(lex, types.CategorySymptoms),
		NewLexiconMatcher(lex, types.CategoryBodyParts),
		NewLexiconMatcher(lex, types.CategorySeverityIndicators),
		GenderMatcher{},
		PatientIDMatcher{},
		TimePeriodMatcher{},
		NumberMatcher{},
		NameMatcher{},
	}
}

// New builds an extractor with the default matchers followed by extra ones.
func New(lex *lexicon.Lexicon, extra ...Matcher) *Extractor {
	return NewWithMatchers(append(DefaultMatchers(lex), extra...)...)
}

func NewWithMatchers(matchers ...Matcher) *Extractor {
	return &Extractor{matchers: matchers}
}

func (e *Extractor) MatcherNames() []string {
	names := make([]string, len(e.matchers))
	for i, m := range e.matchers {
		names[i] = m.Name()
	}
	return names
}

func (e *Extractor) Extract(text string) types.EntitySet {
	return e.Run(NewQuery(text))
}

// Run applies every matcher to q in order.
func (e *Extractor) Run(q *Query) types.EntitySet {
	set := types.NewEntitySet()
	for _, m := range e.matchers {
		m.Match(q, &set)
	}
	return set
}
