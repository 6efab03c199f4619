package confidence

import (
	"math"

	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
)

const (
	Baseline     = 0.5
	PerCategory  = 0.1
	CategoryCap  = 0.3
	IntentBonus  = 0.1
	UrgencyBonus = 0.05
)

// Score combines entity coverage, intent certainty and urgency into a value
// in [0,1], rounded to 4 decimals.
func Score(entities types.EntitySet, intent types.Intent, sentiment types.Sentiment) float64 {
	score := Baseline
	score += math.Min(PerCategory*float64(entities.NonEmptyCategories()), CategoryCap)
	if intent != types.IntentGeneralInquiry {
		score += IntentBonus
	}
	if sentiment.UrgencyScore > 0 {
		score += UrgencyBonus
	}
	return math.Round(utils.ClampUnit(score)*1e4) / 1e4
}
