package intent

import (
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

// Signals is what rules look at: the normalized tokens and the extracted
// entities.
type Signals struct {
	Tokens   []string
	Entities types.EntitySet
}

// Rule maps a predicate to an intent. Rules are evaluated in slice order and
// the first match wins.
type Rule struct {
	Name    string
	Matches func(s Signals) bool
	Intent  types.Intent
}

// Rule names.
const (
	RuleEmergency   = "emergency"
	RuleSchedule    = "schedule"
	RuleMedications = "medications"
	RuleObservation = "observations"
	RuleConditions  = "conditions"
	RulePatients    = "patients"
	RuleDefault     = "default"
)

// MinEmergencyHits is how many trigger and distress hits a companion trigger
// ("severe", "chest pain") needs before it counts as an emergency.
const MinEmergencyHits = 2

// DefaultRules builds the precedence list: emergency, scheduling,
// medications, observations, conditions, patient descriptors, default.
func DefaultRules(lex *lexicon.Lexicon) []Rule {
	emergency := lex.Keywords(lexicon.KeywordEmergency)
	companion := lex.Keywords(lexicon.KeywordEmergencyCompanion)
	distress := lex.Keywords(lexicon.KeywordDistress)
	qualifier := lex.Keywords(lexicon.KeywordEmergencyQualifier)
	qualified := make(map[string]bool)
	for _, name := range lex.Keywords(lexicon.KeywordEmergencyQualified).Phrases() {
		qualified[name] = true
	}
	symptoms := lex.Phrases(types.CategorySymptoms)
	schedule := lex.Keywords(lexicon.KeywordSchedule)
	medication := lex.Keywords(lexicon.KeywordMedication)
	observation := lex.Keywords(lexicon.KeywordObservation)
	condition := lex.Keywords(lexicon.KeywordCondition)
	patient := lex.Keywords(lexicon.KeywordPatient)
	population := lex.Keywords(lexicon.KeywordPopulation)

	// entity-only triggers for observations and conditions stay quiet when
	// the query describes a group of patients rather than one patient's data
	aboutPopulation := func(s Signals) bool {
		if population.Any(s.Tokens) {
			return true
		}
		return patient.Any(s.Tokens) && len(s.Entities.PatientIDs) == 0
	}

	// "severe pain", "severe chest pains": a qualifier directly in front of a
	// qualified symptom, aliases included
	severeSymptom := func(s Signals) bool {
		starts := make(map[int]bool)
		for _, h := range qualifier.All(s.Tokens) {
			starts[h.End] = true
		}
		if len(starts) == 0 {
			return false
		}
		for _, h := range symptoms.Longest(s.Tokens) {
			if starts[h.Start] && qualified[h.Value] {
				return true
			}
		}
		return false
	}

	return []Rule{
		{
			Name: RuleEmergency,
			Matches: func(s Signals) bool {
				if emergency.Any(s.Tokens) || severeSymptom(s) {
					return true
				}
				companionHits := companion.All(s.Tokens)
				if len(companionHits) == 0 {
					return false
				}
				return len(companionHits)+len(distress.All(s.Tokens)) >= MinEmergencyHits
			},
			Intent: types.IntentEmergency,
		},
		{
			Name: RuleSchedule,
			Matches: func(s Signals) bool {
				return schedule.Any(s.Tokens)
			},
			Intent: types.IntentScheduleAppointment,
		},
		{
			Name: RuleMedications,
			Matches: func(s Signals) bool {
				if medication.Any(s.Tokens) {
					return true
				}
				return len(s.Entities.Medications) > 0 &&
					len(s.Entities.Conditions) == 0 &&
					len(s.Entities.Observations) == 0
			},
			Intent: types.IntentFindMedications,
		},
		{
			Name: RuleObservation,
			Matches: func(s Signals) bool {
				if observation.Any(s.Tokens) {
					return true
				}
				return len(s.Entities.Observations) > 0 && !aboutPopulation(s)
			},
			Intent: types.IntentFindObservations,
		},
		{
			Name: RuleConditions,
			Matches: func(s Signals) bool {
				if condition.Any(s.Tokens) {
					return true
				}
				return len(s.Entities.Conditions) > 0 && !aboutPopulation(s)
			},
			Intent: types.IntentFindConditions,
		},
		{
			Name: RulePatients,
			Matches: func(s Signals) bool {
				return patient.Any(s.Tokens) ||
					len(s.Entities.Names) > 0 ||
					len(s.Entities.Genders) > 0 ||
					len(s.Entities.Ages) > 0
			},
			Intent: types.IntentFindPatients,
		},
		{
			Name:    RuleDefault,
			Matches: func(Signals) bool { return true },
			Intent:  types.IntentGeneralInquiry,
		},
	}
}
