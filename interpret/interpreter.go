package interpret

import (
	"math"
	"strings"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

const (
	DefaultSpecialty = "general_medicine"
	// FallbackRecommendation is used when the lexicon has no fallback template.
	FallbackRecommendation = "Follow up with your healthcare provider"
)

// Clinical contexts.
const (
	ContextChronic    = "Chronic disease management"
	ContextAcute      = "Acute symptom assessment"
	ContextMonitoring = "Clinical monitoring"
	ContextGeneral    = "General healthcare"
)

// Data requirement notes.
const (
	NeedPatientIdentifier = "Patient identifier or name required"
	NeedRecentVitals      = "Recent vital signs and lab results"
	NeedSymptomDetails    = "Symptom severity and duration details"
	NeedTimeFrame         = "Time frame for data retrieval"
)

type Interpreter struct {
	lex *lexicon.Lexicon
}

func New(lex *lexicon.Lexicon) *Interpreter {
	return &Interpreter{lex: lex}
}

func (in *Interpreter) Interpret(intent types.Intent, entities types.EntitySet, sentiment types.Sentiment) types.ClinicalInterpretation {
	return types.ClinicalInterpretation{
		PrimaryConcern:      PrimaryConcern(intent, entities),
		UrgencyLevel:        sentiment.PriorityLevel.Label(),
		PotentialDiagnoses:  in.Diagnoses(entities),
		Recommendations:     in.Recommendations(entities, sentiment),
		PatientDemographics: Demographics(entities),
		ClinicalContext:     ClinicalContext(entities),
		RequiredAssessments: in.Assessments(entities),
		MedicalSpecialty:    in.Specialty(entities),
		QueryComplexity:     Complexity(entities),
	}
}

func PrimaryConcern(intent types.Intent, entities types.EntitySet) string {
	switch {
	case len(entities.Conditions) > 0:
		return "Medical condition: " + strings.Join(entities.Conditions, ", ")
	case len(entities.Symptoms) > 0:
		return "Reported symptoms: " + strings.Join(distinct(entities.Symptoms), ", ")
	case len(entities.Observations) > 0:
		return "Clinical measurements: " + strings.Join(entities.Observations, ", ")
	case intent == types.IntentEmergency:
		return "Emergency medical situation"
	}
	return "General healthcare inquiry"
}

// Diagnoses lists the lexicon diagnoses linked to matched conditions,
// symptoms and body parts, each once.
func (in *Interpreter) Diagnoses(entities types.EntitySet) []string {
	var out []string
	for _, category := range []types.Category{types.CategoryConditions, types.CategorySymptoms, types.CategoryBodyParts} {
		for _, term := range entities.Terms(category) {
			if concept, ok := in.lex.Lookup(category, term); ok {
				out = appendUnique(out, concept.Diagnoses...)
			}
		}
	}
	return nonNil(out)
}

// Recommendations starts with the urgency tier advice, then per-condition
// and per-symptom advice. It falls back to the generic template and is never
// empty.
func (in *Interpreter) Recommendations(entities types.EntitySet, sentiment types.Sentiment) []string {
	var out []string
	switch sentiment.PriorityLevel {
	case types.PriorityEmergency:
		out = appendUnique(out, in.lex.Template(lexicon.TemplateEmergency)...)
	case types.PriorityHigh:
		out = appendUnique(out, in.lex.Template(lexicon.TemplateHigh)...)
	case types.PriorityMedium:
		out = appendUnique(out, in.lex.Template(lexicon.TemplateMedium)...)
	}
	for _, category := range []types.Category{types.CategoryConditions, types.CategorySymptoms} {
		for _, term := range entities.Terms(category) {
			if concept, ok := in.lex.Lookup(category, term); ok {
				out = appendUnique(out, concept.Recommendations...)
			}
		}
	}
	if len(out) == 0 {
		out = appendUnique(out, in.lex.Template(lexicon.TemplateFallback)...)
	}
	if len(out) == 0 {
		out = []string{FallbackRecommendation}
	}
	return out
}

func (in *Interpreter) Assessments(entities types.EntitySet) []string {
	var out []string
	for _, category := range []types.Category{types.CategoryConditions, types.CategorySymptoms} {
		for _, term := range entities.Terms(category) {
			if concept, ok := in.lex.Lookup(category, term); ok {
				out = appendUnique(out, concept.Assessments...)
			}
		}
	}
	return nonNil(out)
}

// Specialty counts, per specialty, the entity terms containing one of its
// indicators. The highest count wins; ties go to the earlier specialty.
func (in *Interpreter) Specialty(entities types.EntitySet) string {
	var terms []string
	for _, category := range types.Categories {
		for _, term := range entities.Terms(category) {
			terms = append(terms, strings.ToLower(term))
		}
	}

	best, bestScore := DefaultSpecialty, 0
	for _, specialty := range in.lex.Specialties() {
		score := 0
		for _, term := range terms {
			for _, indicator := range specialty.Indicators {
				if strings.Contains(term, indicator) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = specialty.Name, score
		}
	}
	return best
}

func Demographics(entities types.EntitySet) types.Demographics {
	var d types.Demographics
	if len(entities.Ages) > 0 {
		age := entities.Ages[0]
		d.Age = &age
	}
	if len(entities.Genders) > 0 {
		d.Gender = entities.Genders[0]
	}
	if len(entities.Names) > 0 {
		d.Name = entities.Names[0]
	}
	return d
}

func ClinicalContext(entities types.EntitySet) string {
	switch {
	case len(entities.Conditions) > 0:
		return ContextChronic
	case len(entities.Symptoms) > 0:
		return ContextAcute
	case len(entities.Observations) > 0:
		return ContextMonitoring
	}
	return ContextGeneral
}

// Complexity is min(0.1 × entities + 0.15 × non-empty categories, 1).
func Complexity(entities types.EntitySet) float64 {
	c := 0.1*float64(entities.Total()) + 0.15*float64(entities.NonEmptyCategories())
	return math.Round(math.Min(c, 1)*1e4) / 1e4
}

func DataRequirements(intent types.Intent, entities types.EntitySet) types.DataRequirements {
	req := types.DataRequirements{
		PatientIdentification: []string{},
		ClinicalData:          []string{},
		TemporalData:          []string{},
	}
	if len(entities.PatientIDs) == 0 && len(entities.Names) == 0 {
		req.PatientIdentification = append(req.PatientIdentification, NeedPatientIdentifier)
	}
	if len(entities.Conditions) > 0 && len(entities.Observations) == 0 {
		req.ClinicalData = append(req.ClinicalData, NeedRecentVitals)
	}
	if len(entities.Symptoms) > 0 && len(entities.SeverityIndicators) == 0 {
		req.ClinicalData = append(req.ClinicalData, NeedSymptomDetails)
	}
	if len(entities.TimePeriods) == 0 && (intent == types.IntentFindObservations || intent == types.IntentFindConditions) {
		req.TemporalData = append(req.TemporalData, NeedTimeFrame)
	}
	return req
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range list {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, v)
		}
	}
	return list
}

func distinct(values []string) []string {
	return appendUnique(nil, values...)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
