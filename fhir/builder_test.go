package fhir

import (
	"net/url"
	"testing"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/extract"
	"github.com/Kuljeet1998/healthcare-nlp/intent"
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func build(t *testing.T, query string) types.FHIRQuery {
	t.Helper()
	lex := lexicon.Default()
	q := extract.NewQuery(query)
	entities := extract.New(lex).Run(q)
	in, _ := intent.New(lex).Classify(q.Tokens, entities)
	return NewBuilder(lex, WithClock(func() time.Time { return fixedNow })).Build(in, entities, q.Tokens)
}

func TestBuild(t *testing.T) {
	tests := []struct {
		query    string
		resource types.Resource
		params   types.Parameters
		endpoint string
	}{
		{
			query:    "",
			resource: types.ResourcePatient,
			params:   types.Parameters{{Key: "_count", Value: "10"}},
			endpoint: "https://hapi.fhir.org/baseR4/Patient?_count=10",
		},
		{
			query:    "Show me all diabetic patients over 50",
			resource: types.ResourcePatient,
			params: types.Parameters{
				{Key: "_has:Condition:patient:code", Value: "http://snomed.info/sct|73211009"},
				{Key: "birthdate", Value: "le1974"},
			},
			endpoint: "https://hapi.fhir.org/baseR4/Patient?_has:Condition:patient:code=http%3A%2F%2Fsnomed.info%2Fsct%7C73211009&birthdate=le1974",
		},
		{
			query:    "Find blood pressure observations for patient 123 from last 30 days",
			resource: types.ResourceObservation,
			params: types.Parameters{
				{Key: "code", Value: "http://loinc.org|85354-9"},
				{Key: "subject", Value: "Patient/123"},
				{Key: "date", Value: "ge2024-05-16"},
			},
			endpoint: "https://hapi.fhir.org/baseR4/Observation?code=http%3A%2F%2Floinc.org%7C85354-9&subject=Patient%2F123&date=ge2024-05-16",
		},
		{
			query:    "Get active diabetes and asthma conditions from the past year",
			resource: types.ResourceCondition,
			params: types.Parameters{
				{Key: "code", Value: "http://snomed.info/sct|73211009,http://snomed.info/sct|195967001"},
				{Key: "clinical-status", Value: "active"},
				{Key: "recorded-date", Value: "ge2023-06-16"},
			},
		},
		{
			query:    "resolved migraine conditions for female patient 9",
			resource: types.ResourceCondition,
			params: types.Parameters{
				{Key: "code", Value: "http://snomed.info/sct|37796009"},
				{Key: "subject", Value: "Patient/9"},
				{Key: "subject:Patient.gender", Value: "female"},
				{Key: "clinical-status", Value: "resolved"},
			},
		},
		{
			query:    "current metformin prescriptions",
			resource: types.ResourceMedicationRequest,
			params: types.Parameters{
				{Key: "code", Value: "http://www.nlm.nih.gov/research/umls/rxnorm|6809"},
				{Key: "status", Value: "active"},
			},
		},
		{
			query:    "female patients named Jane Doe seen recently",
			resource: types.ResourcePatient,
			params: types.Parameters{
				{Key: "gender", Value: "female"},
				{Key: "name", Value: "Jane Doe"},
			},
		},
		{
			query:    "patient 42 records from yesterday",
			resource: types.ResourcePatient,
			params: types.Parameters{
				{Key: "_id", Value: "42"},
				{Key: "_lastUpdated", Value: "ge2024-06-14"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			query := build(t, tt.query)
			require.Equal(t, MethodGet, query.Method)
			require.Equal(t, tt.resource, query.Resource)
			require.Equal(t, tt.params, query.Parameters)
			require.Empty(t, query.Gaps)
			if tt.endpoint != "" {
				require.Equal(t, tt.endpoint, query.Endpoint)
			}
		})
	}
}

func TestEndpointRoundTrip(t *testing.T) {
	queries := []string{
		"",
		"Show me all diabetic patients over 50",
		"Find blood pressure observations for patient 123 from last 30 days",
		"List all female patients named Mary Ann with hypertension aged 70 in the last 2 weeks",
		"current metformin prescriptions for male patient #7",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			query := build(t, q)
			parsed, err := url.Parse(query.Endpoint)
			require.NoError(t, err)
			require.Equal(t, "/baseR4/"+string(query.Resource), parsed.Path)

			values := parsed.Query()
			require.Len(t, values, len(query.Parameters))
			for _, p := range query.Parameters {
				require.Equal(t, []string{p.Value}, values[p.Key], p.Key)
			}
		})
	}
}

func TestLexiconGaps(t *testing.T) {
	lex, err := lexicon.Parse([]byte(`
conditions:
  - name: lupus
  - name: asthma
    code: "195967001"
    system: http://snomed.info/sct
  - name: gout
`))
	require.NoError(t, err)
	b := NewBuilder(lex, WithBaseURL("http://fhir.local/r4/"), WithClock(func() time.Time { return fixedNow }))
	require.Equal(t, "http://fhir.local/r4", b.BaseURL())

	t.Run("mapped codes win and misses are recorded", func(t *testing.T) {
		entities := types.NewEntitySet()
		entities.AddTerm(types.CategoryConditions, "lupus")
		entities.AddTerm(types.CategoryConditions, "asthma")
		query := b.Build(types.IntentFindConditions, entities, nil)
		require.Equal(t, types.Parameters{{Key: "code", Value: "http://snomed.info/sct|195967001"}}, query.Parameters)
		require.Equal(t, []string{"lupus"}, query.Gaps)
	})

	t.Run("free text when nothing maps", func(t *testing.T) {
		entities := types.NewEntitySet()
		entities.AddTerm(types.CategoryConditions, "lupus")
		entities.AddTerm(types.CategoryConditions, "gout")
		query := b.Build(types.IntentFindConditions, entities, nil)
		require.Equal(t, types.Parameters{{Key: "code:text", Value: "lupus"}}, query.Parameters)
		require.Equal(t, []string{"gout"}, query.Gaps)
		require.Equal(t, "http://fhir.local/r4/Condition?code:text=lupus", query.Endpoint)
	})
}

func TestResourceFor(t *testing.T) {
	require.Equal(t, types.ResourceCondition, ResourceFor(types.IntentFindConditions))
	require.Equal(t, types.ResourceObservation, ResourceFor(types.IntentFindObservations))
	require.Equal(t, types.ResourceMedicationRequest, ResourceFor(types.IntentFindMedications))
	for _, in := range []types.Intent{types.IntentFindPatients, types.IntentEmergency, types.IntentScheduleAppointment, types.IntentGeneralInquiry} {
		require.Equal(t, types.ResourcePatient, ResourceFor(in))
	}
}

func TestDateBoundRange(t *testing.T) {
	b := NewBuilder(lexicon.Default(), WithClock(func() time.Time { return fixedNow }))
	withDays := func(n int) types.EntitySet {
		entities := types.NewEntitySet()
		entities.TimePeriods = append(entities.TimePeriods, types.TimePeriod{Phrase: "last n days", Days: &n})
		return entities
	}

	t.Run("oldest bound", func(t *testing.T) {
		query := b.Build(types.IntentFindObservations, withDays(types.MaxPeriodDays), nil)
		require.Equal(t, types.Parameters{{Key: "date", Value: "ge1824-08-03"}}, query.Parameters)
	})

	for _, n := range []int{types.MaxPeriodDays + 1, -3, 99999999999} {
		query := b.Build(types.IntentFindObservations, withDays(n), nil)
		require.Equal(t, types.Parameters{{Key: "_count", Value: "10"}}, query.Parameters, n)
	}

	for _, q := range []string{
		"heart rate for patient 55 from the last 99999999999 days",
		"heart rate for patient 55 from the last 50000000000000000 years",
	} {
		for _, p := range build(t, q).Parameters {
			require.NotEqual(t, "date", p.Key, q)
		}
	}
}
