package types

type PriorityLevel string

const (
	PriorityLow       PriorityLevel = "low"
	PriorityMedium    PriorityLevel = "medium"
	PriorityHigh      PriorityLevel = "high"
	PriorityEmergency PriorityLevel = "emergency"
)

// Label is the wording used in clinical interpretations.
func (p PriorityLevel) Label() string {
	switch p {
	case PriorityEmergency:
		return "Emergency - immediate attention required"
	case PriorityHigh:
		return "High - urgent evaluation needed"
	case PriorityMedium:
		return "Medium - timely evaluation recommended"
	}
	return "Low - routine care"
}

type Sentiment struct {
	PriorityLevel       PriorityLevel `json:"priority_level"`
	UrgencyScore        float64       `json:"urgency_score"`
	EmotionalIndicators []string      `json:"emotional_indicators"`
	Polarity            float64       `json:"polarity"`
	KeywordWeight       int           `json:"keyword_weight"`
}
