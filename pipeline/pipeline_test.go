package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Kuljeet1998/healthcare-nlp/extract"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
	"github.com/stretchr/testify/require"
)

type explodingMatcher struct{}

func (explodingMatcher) Name() string { return "exploding" }

func (explodingMatcher) Match(q *extract.Query, _ *types.EntitySet) {
	if q.Text == "boom" {
		panic("matcher exploded")
	}
}

func TestSplitQueries(t *testing.T) {
	require.Equal(t, []string{"first", "second line"}, SplitQueries("  first \n\n\t\nsecond line\r\n"))
	require.Nil(t, SplitQueries(" \n "))
}

func TestPipeline(t *testing.T) {
	analyzer := newTestAnalyzer(t, WithMatchers(explodingMatcher{}))
	ppln := NewPipeline(analyzer)

	text := "Show me all diabetic patients over 50\n\nboom\nFind blood pressure observations for patient 123 from last 30 days\n"
	raw, ok := <-ppln(Request{Tid: "tid-1", Text: text})
	require.True(t, ok)

	var response Response
	require.NoError(t, json.Unmarshal([]byte(raw), &response))
	require.Equal(t, "tid-1", response.Tid)
	require.Equal(t, analyzer.Lexicon().Fingerprint(), response.LexiconVersion)
	require.Len(t, response.Results, 3)

	require.Equal(t, 1, response.Results[0].Line)
	require.Equal(t, types.IntentFindPatients, response.Results[0].Result.Intent)

	require.Equal(t, 2, response.Results[1].Line)
	require.Nil(t, response.Results[1].Result)
	require.Contains(t, response.Results[1].Error, "matcher exploded")

	require.Equal(t, 3, response.Results[2].Line)
	require.Equal(t, types.IntentFindObservations, response.Results[2].Result.Intent)
	require.Equal(t, analyzer.Analyze("Find blood pressure observations for patient 123 from last 30 days"), *response.Results[2].Result)
}

func TestPipelineEmptyRequest(t *testing.T) {
	raw := <-NewPipeline(newTestAnalyzer(t))(Request{Tid: "empty"})
	require.JSONEq(t, `{"tid":"empty","lexicon_version":"`+newTestAnalyzer(t).Lexicon().Fingerprint()+`","results":[]}`, raw)
}

func TestAnalyzeSafely(t *testing.T) {
	_, err := analyzeSafely(newTestAnalyzer(t, WithMatchers(explodingMatcher{})), "boom")
	require.True(t, errors.Is(err, utils.ErrPanic))
}
