package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const MaxAge = 119

// LexiconMatcher finds the phrases of one lexicon category, longest match
// first. Hits overlapping a shadowing category are dropped ("high blood
// pressure" is a condition, not also an observation).
type LexiconMatcher struct {
	category   types.Category
	phrases    *lexicon.PhraseSet
	shadowedBy []types.Category
}

func NewLexiconMatcher(lex *lexicon.Lexicon, category types.Category, shadowedBy ...types.Category) *LexiconMatcher {
	return &LexiconMatcher{
		category:   category,
		phrases:    lex.Phrases(category),
		shadowedBy: shadowedBy,
	}
}

func (m *LexiconMatcher) Name() string {
	return string(m.category)
}

func (m *LexiconMatcher) Match(q *Query, set *types.EntitySet) {
	for _, hit := range m.phrases.Longest(q.Tokens) {
		shadowed := false
		for _, other := range m.shadowedBy {
			if overlaps(hit, q.hits[other]) {
				shadowed = true
				break
			}
		}
		if shadowed {
			continue
		}
		q.hits[m.category] = append(q.hits[m.category], hit)
		set.AddTerm(m.category, hit.Value)
	}
}

var genderTokens = map[string]string{
	"male":    "male",
	"males":   "male",
	"man":     "male",
	"men":     "male",
	"female":  "female",
	"females": "female",
	"woman":   "female",
	"women":   "female",
}

type GenderMatcher struct{}

func (GenderMatcher) Name() string { return string(types.CategoryGenders) }

func (GenderMatcher) Match(q *Query, set *types.EntitySet) {
	for _, token := range q.Tokens {
		gender, ok := genderTokens[token]
		if !ok || set.Has(types.CategoryGenders, gender) {
			continue
		}
		set.AddTerm(types.CategoryGenders, gender)
	}
}

var patientIDPattern = regexp.MustCompile(`\bpatient\s+(?:id\s*:?\s*)?(?:#\s*)?(\d+)\b`)

// PatientIDMatcher takes the digits following "patient", "patient #" or
// "patient id".
type PatientIDMatcher struct{}

func (PatientIDMatcher) Name() string { return string(types.CategoryPatientIDs) }

func (PatientIDMatcher) Match(q *Query, set *types.EntitySet) {
	for _, loc := range patientIDPattern.FindAllStringSubmatchIndex(q.Text, -1) {
		q.Consume(loc[2], loc[3])
		set.AddTerm(types.CategoryPatientIDs, q.Text[loc[2]:loc[3]])
	}
}

var (
	periodCountPattern = regexp.MustCompile(`\b(?:last|past|previous)\s+(\d+)\s+(day|week|month|year)s?\b`)
	periodUnitPattern  = regexp.MustCompile(`\b(?:last|past|previous)\s+(day|week|month|year)\b`)
	periodWordPattern  = regexp.MustCompile(`\b(yesterday|today|recently|recent)\b`)

	unitDays = map[string]int{"day": 1, "week": 7, "month": 30, "year": 365}
	wordDays = map[string]int{"yesterday": 1, "today": 0}
)

// TimePeriodMatcher recognises relative date phrases and converts them to a
// day count where the phrase has one.
type TimePeriodMatcher struct{}

func (TimePeriodMatcher) Name() string { return string(types.CategoryTimePeriods) }

func (TimePeriodMatcher) Match(q *Query, set *types.EntitySet) {
	type found struct {
		start  int
		period types.TimePeriod
	}
	var periods []found

	for _, loc := range periodCountPattern.FindAllStringSubmatchIndex(q.Text, -1) {
		q.Consume(loc[2], loc[3])
		period := types.TimePeriod{Phrase: q.Text[loc[0]:loc[1]]}
		unit := unitDays[q.Text[loc[4]:loc[5]]]
		if n, err := strconv.Atoi(q.Text[loc[2]:loc[3]]); err == nil && n <= types.MaxPeriodDays/unit {
			days := n * unit
			period.Days = &days
		}
		periods = append(periods, found{loc[0], period})
	}
	for _, loc := range periodUnitPattern.FindAllStringSubmatchIndex(q.Text, -1) {
		days := unitDays[q.Text[loc[2]:loc[3]]]
		periods = append(periods, found{loc[0], types.TimePeriod{Phrase: q.Text[loc[0]:loc[1]], Days: &days}})
	}
	for _, loc := range periodWordPattern.FindAllStringSubmatchIndex(q.Text, -1) {
		word := q.Text[loc[2]:loc[3]]
		period := types.TimePeriod{Phrase: word}
		if d, ok := wordDays[word]; ok {
			days := d
			period.Days = &days
		}
		periods = append(periods, found{loc[0], period})
	}

	// the three patterns never overlap, so ordering by start restores text order
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].start < periods[j].start })
	for _, p := range periods {
		set.TimePeriods = append(set.TimePeriods, p.period)
	}
}

var (
	integerPattern = regexp.MustCompile(`\b\d+\b`)
	agePrefix      = regexp.MustCompile(`\b(?:over|under|above|below|age|aged|older than|younger than)\s+$`)
	ageSuffix      = regexp.MustCompile(`^(?:(?:\s+|-)years?(?:\s+|-)old\b|\s*yo\b|\s*y/o\b)`)
)

// NumberMatcher reports integers, as ages when an age context word surrounds
// a value in 0..MaxAge and as plain numbers otherwise.
type NumberMatcher struct{}

func (NumberMatcher) Name() string { return string(types.CategoryNumbers) }

func (NumberMatcher) Match(q *Query, set *types.EntitySet) {
	for _, loc := range integerPattern.FindAllStringIndex(q.Text, -1) {
		if q.Consumed(loc[0], loc[1]) {
			continue
		}
		n, err := strconv.Atoi(q.Text[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		isAge := n <= MaxAge &&
			(agePrefix.MatchString(q.Text[:loc[0]]) || ageSuffix.MatchString(q.Text[loc[1]:]))
		if isAge {
			set.Ages = append(set.Ages, n)
		} else {
			set.Numbers = append(set.Numbers, n)
		}
	}
}

var (
	capitalisedPairPattern = regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`)
	namedPattern           = regexp.MustCompile(`\b[Nn]amed\s+([A-Za-z]+(?:\s+[A-Z][a-z]+)?)`)
)

// NameMatcher reports two adjacent capitalised words of the original text and
// the words after "named". The capitalised pair heuristic also fires on any
// other capitalised phrase.
type NameMatcher struct{}

func (NameMatcher) Name() string { return string(types.CategoryNames) }

func (NameMatcher) Match(q *Query, set *types.EntitySet) {
	text := strings.Join(strings.Fields(q.Original), " ")
	for _, name := range capitalisedPairPattern.FindAllString(text, -1) {
		if !set.Has(types.CategoryNames, name) {
			set.AddTerm(types.CategoryNames, name)
		}
	}
	if m := namedPattern.FindStringSubmatch(text); m != nil {
		// a Caser is stateful, so each call gets its own
		name := cases.Title(language.English).String(m[1])
		if !set.Has(types.CategoryNames, name) {
			set.AddTerm(types.CategoryNames, name)
		}
	}
}
