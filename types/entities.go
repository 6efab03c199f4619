package types

import (
	"encoding/json"
	"strconv"
)

type Category string

const (
	CategoryConditions         Category = "conditions"
	CategoryAges               Category = "ages"
	CategoryGenders            Category = "genders"
	CategoryNames              Category = "names"
	CategoryPatientIDs         Category = "patient_ids"
	CategoryObservations       Category = "observations"
	CategoryMedications        Category = "medications"
	CategorySymptoms           Category = "symptoms"
	CategoryBodyParts          Category = "body_parts"
	CategoryTimePeriods        Category = "time_periods"
	CategoryNumbers            Category = "numbers"
	CategorySeverityIndicators Category = "severity_indicators"
)

// Categories lists every entity category in serialisation order.
var Categories = []Category{
	CategoryConditions,
	CategoryAges,
	CategoryGenders,
	CategoryNames,
	CategoryPatientIDs,
	CategoryObservations,
	CategoryMedications,
	CategorySymptoms,
	CategoryBodyParts,
	CategoryTimePeriods,
	CategoryNumbers,
	CategorySeverityIndicators,
}

// MaxPeriodDays bounds how far back a relative date phrase may reach.
const MaxPeriodDays = 200 * 365

// TimePeriod is a relative date phrase. Days is nil when the phrase carries
// no day count ("recent") or a count beyond MaxPeriodDays.
type TimePeriod struct {
	Phrase string `json:"phrase"`
	Days   *int   `json:"days"`
}

type EntitySet struct {
	Conditions         []string     `json:"conditions"`
	Ages               []int        `json:"ages"`
	Genders            []string     `json:"genders"`
	Names              []string     `json:"names"`
	PatientIDs         []string     `json:"patient_ids"`
	Observations       []string     `json:"observations"`
	Medications        []string     `json:"medications"`
	Symptoms           []string     `json:"symptoms"`
	BodyParts          []string     `json:"body_parts"`
	TimePeriods        []TimePeriod `json:"time_periods"`
	Numbers            []int        `json:"numbers"`
	SeverityIndicators []string     `json:"severity_indicators"`
}

func NewEntitySet() EntitySet {
	return EntitySet{
		Conditions:         []string{},
		Ages:               []int{},
		Genders:            []string{},
		Names:              []string{},
		PatientIDs:         []string{},
		Observations:       []string{},
		Medications:        []string{},
		Symptoms:           []string{},
		BodyParts:          []string{},
		TimePeriods:        []TimePeriod{},
		Numbers:            []int{},
		SeverityIndicators: []string{},
	}
}

// setLike categories keep a single entry per canonical term.
func setLike(c Category) bool {
	return c == CategoryConditions || c == CategoryObservations
}

func (set *EntitySet) strings(c Category) *[]string {
	switch c {
	case CategoryConditions:
		return &set.Conditions
	case CategoryGenders:
		return &set.Genders
	case CategoryNames:
		return &set.Names
	case CategoryPatientIDs:
		return &set.PatientIDs
	case CategoryObservations:
		return &set.Observations
	case CategoryMedications:
		return &set.Medications
	case CategorySymptoms:
		return &set.Symptoms
	case CategoryBodyParts:
		return &set.BodyParts
	case CategorySeverityIndicators:
		return &set.SeverityIndicators
	}
	return nil
}

// AddTerm appends a term to a string category. It reports false when the
// category holds no strings or when a set-like category already has the term.
func (set *EntitySet) AddTerm(c Category, term string) bool {
	list := set.strings(c)
	if list == nil || term == "" {
		return false
	}
	if setLike(c) {
		for _, existing := range *list {
			if existing == term {
				return false
			}
		}
	}
	*list = append(*list, term)
	return true
}

// Terms returns the entries of a category as strings. Numeric categories are
// formatted in base 10 and time periods are reported by phrase.
func (set EntitySet) Terms(c Category) []string {
	switch c {
	case CategoryAges:
		return formatInts(set.Ages)
	case CategoryNumbers:
		return formatInts(set.Numbers)
	case CategoryTimePeriods:
		phrases := make([]string, len(set.TimePeriods))
		for i, tp := range set.TimePeriods {
			phrases[i] = tp.Phrase
		}
		return phrases
	}
	if list := set.strings(c); list != nil {
		return *list
	}
	return nil
}

func (set EntitySet) Has(c Category, term string) bool {
	for _, t := range set.Terms(c) {
		if t == term {
			return true
		}
	}
	return false
}

func (set EntitySet) Len(c Category) int {
	switch c {
	case CategoryAges:
		return len(set.Ages)
	case CategoryNumbers:
		return len(set.Numbers)
	case CategoryTimePeriods:
		return len(set.TimePeriods)
	}
	if list := set.strings(c); list != nil {
		return len(*list)
	}
	return 0
}

func (set EntitySet) NonEmptyCategories() int {
	n := 0
	for _, c := range Categories {
		if set.Len(c) > 0 {
			n++
		}
	}
	return n
}

func (set EntitySet) Total() int {
	n := 0
	for _, c := range Categories {
		n += set.Len(c)
	}
	return n
}

// FirstDays returns the day count of the first numeric time period within
// [0, MaxPeriodDays].
func (set EntitySet) FirstDays() (int, bool) {
	for _, tp := range set.TimePeriods {
		if tp.Days != nil && *tp.Days >= 0 && *tp.Days <= MaxPeriodDays {
			return *tp.Days, true
		}
	}
	return 0, false
}

// MarshalJSON never emits null for a category.
func (set EntitySet) MarshalJSON() ([]byte, error) {
	type plain EntitySet
	out := plain(set)
	filled := NewEntitySet()
	if out.Conditions == nil {
		out.Conditions = filled.Conditions
	}
	if out.Ages == nil {
		out.Ages = filled.Ages
	}
	if out.Genders == nil {
		out.Genders = filled.Genders
	}
	if out.Names == nil {
		out.Names = filled.Names
	}
	if out.PatientIDs == nil {
		out.PatientIDs = filled.PatientIDs
	}
	if out.Observations == nil {
		out.Observations = filled.Observations
	}
	if out.Medications == nil {
		out.Medications = filled.Medications
	}
	if out.Symptoms == nil {
		out.Symptoms = filled.Symptoms
	}
	if out.BodyParts == nil {
		out.BodyParts = filled.BodyParts
	}
	if out.TimePeriods == nil {
		out.TimePeriods = filled.TimePeriods
	}
	if out.Numbers == nil {
		out.Numbers = filled.Numbers
	}
	if out.SeverityIndicators == nil {
		out.SeverityIndicators = filled.SeverityIndicators
	}
	return json.Marshal(out)
}

func formatInts(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}
