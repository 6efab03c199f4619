package types

import "errors"

// ErrInvalidInput marks requests rejected before analysis, e.g. a missing or
// non-string query.
var ErrInvalidInput = errors.New("invalid input")

// Result is everything derived from a single query.
type Result struct {
	Query                  string                 `json:"query"`
	Entities               EntitySet              `json:"entities"`
	Intent                 Intent                 `json:"intent"`
	IntentRule             string                 `json:"intent_rule"`
	Confidence             float64                `json:"confidence"`
	Sentiment              Sentiment              `json:"sentiment"`
	FHIRQuery              FHIRQuery              `json:"fhir_query"`
	ClinicalInterpretation ClinicalInterpretation `json:"clinical_interpretation"`
	Recommendations        []string               `json:"recommendations"`
	DataRequirements       DataRequirements       `json:"data_requirements"`
	LexiconVersion         string                 `json:"lexicon_version"`
}
