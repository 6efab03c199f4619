package sentiment

import (
	"math"
	"sort"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
)

// Urgency score contributions.
const (
	CriticalWeight = 0.5
	SevereWeight   = 0.2
	SymptomWeight  = 0.1
	UrgentWeight   = 0.1
)

// Threshold is the lowest urgency score of a priority level.
type Threshold struct {
	Min   float64
	Level types.PriorityLevel
}

// Thresholds are checked from the top; the first one reached wins.
var Thresholds = []Threshold{
	{Min: 0.8, Level: types.PriorityEmergency},
	{Min: 0.5, Level: types.PriorityHigh},
	{Min: 0.2, Level: types.PriorityMedium},
}

func Priority(score float64) types.PriorityLevel {
	for _, th := range Thresholds {
		if score >= th.Min {
			return th.Level
		}
	}
	return types.PriorityLow
}

type Analyzer struct {
	lex         *lexicon.Lexicon
	critical    *lexicon.PhraseSet
	urgent      *lexicon.PhraseSet
	worry       *lexicon.PhraseSet
	helpSeeking *lexicon.PhraseSet
	positive    *lexicon.PhraseSet
	negative    *lexicon.PhraseSet
	negation    *lexicon.PhraseSet
}

func New(lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{
		lex:         lex,
		critical:    lex.Keywords(lexicon.KeywordCritical),
		urgent:      lex.Keywords(lexicon.KeywordUrgent),
		worry:       lex.Keywords(lexicon.KeywordWorry),
		helpSeeking: lex.Keywords(lexicon.KeywordHelpSeeking),
		positive:    lex.Keywords(lexicon.KeywordPositive),
		negative:    lex.Keywords(lexicon.KeywordNegative),
		negation:    lex.Keywords(lexicon.KeywordNegation),
	}
}

func (a *Analyzer) Analyze(tokens []string, entities types.EntitySet) types.Sentiment {
	score := a.UrgencyScore(tokens, entities)
	return types.Sentiment{
		PriorityLevel:       Priority(score),
		UrgencyScore:        score,
		EmotionalIndicators: a.EmotionalIndicators(tokens),
		Polarity:            a.Polarity(tokens),
		KeywordWeight:       a.KeywordWeight(tokens),
	}
}

// UrgencyScore is in [0,1], rounded to 4 decimals.
func (a *Analyzer) UrgencyScore(tokens []string, entities types.EntitySet) float64 {
	score := 0.0
	if a.critical.Any(tokens) {
		score += CriticalWeight
	}
	for _, indicator := range entities.SeverityIndicators {
		if concept, ok := a.lex.Lookup(types.CategorySeverityIndicators, indicator); ok && concept.Severity == lexicon.SeveritySevere {
			score += SevereWeight
		}
	}
	score += SymptomWeight * float64(countDistinct(entities.Symptoms))
	if a.urgent.Any(tokens) {
		score += UrgentWeight
	}
	return round(utils.ClampUnit(score))
}

// EmotionalIndicators lists urgency, worry and help-seeking phrases in order
// of first appearance, each once.
func (a *Analyzer) EmotionalIndicators(tokens []string) []string {
	var hits []lexicon.Hit
	hits = append(hits, a.lex.UrgencyPhrases().All(tokens)...)
	hits = append(hits, a.worry.All(tokens)...)
	hits = append(hits, a.helpSeeking.All(tokens)...)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Start < hits[j].Start })

	indicators := lexicon.Distinct(hits)
	if indicators == nil {
		return []string{}
	}
	return indicators
}

// KeywordWeight is the highest urgency weight among matched phrases.
func (a *Analyzer) KeywordWeight(tokens []string) int {
	weight := 0
	for _, hit := range a.lex.UrgencyPhrases().All(tokens) {
		if w := a.lex.UrgencyWeight(hit.Value); w > weight {
			weight = w
		}
	}
	return weight
}

// Polarity is (positive - negative) / (positive + negative) over polarity
// words, where a negation token right before a word flips it. Zero when no
// polarity word is present.
func (a *Analyzer) Polarity(tokens []string) float64 {
	negated := make(map[int]bool)
	for _, hit := range a.negation.All(tokens) {
		negated[hit.End] = true
	}

	positive, negative := 0, 0
	for _, hit := range a.positive.All(tokens) {
		if negated[hit.Start] {
			negative++
		} else {
			positive++
		}
	}
	for _, hit := range a.negative.All(tokens) {
		if negated[hit.Start] {
			positive++
		} else {
			negative++
		}
	}

	if positive+negative == 0 {
		return 0
	}
	return round(float64(positive-negative) / float64(positive+negative))
}

func countDistinct(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
