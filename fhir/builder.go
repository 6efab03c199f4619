package fhir

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

const (
	DefaultBaseURL = "https://hapi.fhir.org/baseR4"
	MethodGet      = "GET"
	DefaultCount   = "10"
	dateLayout     = "2006-01-02"
)

// Search parameter names.
const (
	ParamCode           = "code"
	ParamPatientHasCode = "_has:Condition:patient:code"
	ParamSubject        = "subject"
	ParamID             = "_id"
	ParamGender         = "gender"
	ParamSubjectGender  = "subject:Patient.gender"
	ParamBirthdate      = "birthdate"
	ParamSubjectBirth   = "subject:Patient.birthdate"
	ParamClinicalStatus = "clinical-status"
	ParamName           = "name"
	ParamStatus         = "status"
	ParamCount          = "_count"
	textModifier        = ":text"
)

var dateParams = map[types.Resource]string{
	types.ResourceObservation:       "date",
	types.ResourceCondition:         "recorded-date",
	types.ResourceMedicationRequest: "authoredon",
	types.ResourcePatient:           "_lastUpdated",
}

// codedCategory is the entity category whose codes filter each resource.
var codedCategory = map[types.Resource]types.Category{
	types.ResourcePatient:           types.CategoryConditions,
	types.ResourceCondition:         types.CategoryConditions,
	types.ResourceObservation:       types.CategoryObservations,
	types.ResourceMedicationRequest: types.CategoryMedications,
}

func ResourceFor(intent types.Intent) types.Resource {
	switch intent {
	case types.IntentFindConditions:
		return types.ResourceCondition
	case types.IntentFindObservations:
		return types.ResourceObservation
	case types.IntentFindMedications:
		return types.ResourceMedicationRequest
	}
	return types.ResourcePatient
}

type Builder struct {
	lex     *lexicon.Lexicon
	baseURL string
	now     func() time.Time
}

type Option func(b *Builder)

func WithBaseURL(baseURL string) Option {
	return func(b *Builder) {
		b.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(lex *lexicon.Lexicon, opts ...Option) *Builder {
	b := &Builder{
		lex:     lex,
		baseURL: DefaultBaseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) BaseURL() string {
	return b.baseURL
}

// Build maps an intent and its entities to a search. tokens are the
// normalized query tokens, used for status keywords.
func (b *Builder) Build(intent types.Intent, entities types.EntitySet, tokens []string) types.FHIRQuery {
	resource := ResourceFor(intent)
	params := &assembler{}
	var gaps []string

	// 1. codes
	codeKey := ParamCode
	if resource == types.ResourcePatient {
		codeKey = ParamPatientHasCode
	}
	category := codedCategory[resource]
	var codes, unmapped []string
	for _, term := range entities.Terms(category) {
		concept, ok := b.lex.Lookup(category, term)
		if !ok || concept.Code == "" {
			unmapped = append(unmapped, term)
			continue
		}
		codes = appendUnique(codes, concept.CodeParam())
	}
	switch {
	case len(codes) > 0:
		params.set(codeKey, strings.Join(codes, ","))
		gaps = append(gaps, unmapped...)
	case len(unmapped) > 0:
		params.set(codeKey+textModifier, unmapped[0])
		gaps = append(gaps, unmapped[1:]...)
	}

	// 2. subject
	if len(entities.PatientIDs) > 0 {
		if resource == types.ResourcePatient {
			params.set(ParamID, entities.PatientIDs[0])
		} else {
			params.set(ParamSubject, "Patient/"+entities.PatientIDs[0])
		}
	}

	// 3. gender
	if len(entities.Genders) > 0 {
		key := ParamSubjectGender
		if resource == types.ResourcePatient {
			key = ParamGender
		}
		params.set(key, strings.Join(entities.Genders, ","))
	}

	// 4. birth date upper bound; "under N" gets the same bound as "over N"
	if len(entities.Ages) > 0 {
		key := ParamSubjectBirth
		if resource == types.ResourcePatient {
			key = ParamBirthdate
		}
		params.set(key, "le"+strconv.Itoa(b.now().Year()-entities.Ages[0]))
	}

	// 5. clinical status
	if resource == types.ResourceCondition {
		if b.lex.Keywords(lexicon.KeywordActiveStatus).Any(tokens) {
			params.set(ParamClinicalStatus, "active")
		} else if b.lex.Keywords(lexicon.KeywordResolvedStatus).Any(tokens) {
			params.set(ParamClinicalStatus, "resolved")
		}
	}

	// 6. date lower bound
	if days, ok := entities.FirstDays(); ok {
		params.set(dateParams[resource], "ge"+b.now().AddDate(0, 0, -days).Format(dateLayout))
	}

	// 7. name
	if resource == types.ResourcePatient && len(entities.Names) > 0 {
		params.set(ParamName, entities.Names[0])
	}

	// 8. medication status
	if resource == types.ResourceMedicationRequest && b.lex.Keywords(lexicon.KeywordActiveStatus).Any(tokens) {
		params.set(ParamStatus, "active")
	}

	if len(params.list) == 0 {
		params.set(ParamCount, DefaultCount)
	}

	if gaps == nil {
		gaps = []string{}
	}
	return types.FHIRQuery{
		Method:     MethodGet,
		Resource:   resource,
		Parameters: params.list,
		Endpoint:   b.Endpoint(resource, params.list),
		Gaps:       gaps,
	}
}

// Endpoint formats base/resource?k=v&... keeping parameter order. Values are
// query-escaped, keys are written as is.
func (b *Builder) Endpoint(resource types.Resource, params types.Parameters) string {
	var sb strings.Builder
	sb.WriteString(b.baseURL)
	sb.WriteByte('/')
	sb.WriteString(string(resource))
	for i, p := range params {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// assembler keeps the first value written for a key.
type assembler struct {
	list types.Parameters
}

func (a *assembler) set(key, value string) {
	if _, ok := a.list.Get(key); ok || value == "" {
		return
	}
	a.list = append(a.list, types.Parameter{Key: key, Value: value})
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
