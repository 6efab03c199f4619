package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg Config) *Server {
	analyzer, err := pipeline.NewAnalyzer(lexicon.Default(), pipeline.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	s := NewServer(analyzer, cfg)
	s.now = func() time.Time { return fixedNow }
	return s
}

func serve(s *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := serve(s, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, HealthResponse{
		Status:         "healthy",
		Service:        ServiceName,
		Version:        ServiceVersion,
		Timestamp:      fixedNow,
		LexiconVersion: lexicon.Default().Fingerprint(),
	}, body)
}

func TestQuery(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := serve(s, http.MethodPost, "/api/query", `{"query": "Show me all diabetic patients over 50"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.RequestID)
	require.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
	require.False(t, body.Cached)
	require.Equal(t, types.IntentFindPatients, body.Result.Intent)
	require.Equal(t, types.ResourcePatient, body.Result.FHIRQuery.Resource)
	require.Equal(t, 0.8, body.Result.Confidence)
}

func TestQueryCache(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	const payload = `{"query": "What medications is patient 12345 taking?"}`

	first := serve(s, http.MethodPost, "/api/query", payload, nil)
	second := serve(s, http.MethodPost, "/api/query", payload, nil)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b QueryResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.False(t, a.Cached)
	require.True(t, b.Cached)
	require.Equal(t, a.Result, b.Result)
	require.NotEqual(t, a.RequestID, b.RequestID)
}

func TestQueryCacheDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 0
	s := newTestServer(t, cfg)
	const payload = `{"query": "patients with asthma"}`

	serve(s, http.MethodPost, "/api/query", payload, nil)
	rec := serve(s, http.MethodPost, "/api/query", payload, nil)

	var body QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Cached)
}

func TestQueryEmptyString(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := serve(s, http.MethodPost, "/api/query", `{"query": ""}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, types.IntentGeneralInquiry, body.Result.Intent)
	require.Equal(t, 0.5, body.Result.Confidence)
}

func TestQueryRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueryLength = 10
	s := newTestServer(t, cfg)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing query", body: `{"text": "asthma"}`},
		{name: "not a string", body: `{"query": 42}`},
		{name: "null query", body: `{"query": null}`},
		{name: "not an object", body: `["asthma"]`},
		{name: "malformed", body: `{"query": `},
		{name: "too long", body: `{"query": "patients with asthma"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodPost, "/api/query", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			require.Equal(t, KindInvalidInput, body.Error.Kind)
			require.NotEmpty(t, body.Error.Message)
			require.NotEmpty(t, body.RequestID)
		})
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := serve(s, http.MethodGet, "/api/nothing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, KindNotFound, decodeError(t, rec).Error.Kind)

	rec = serve(s, http.MethodGet, "/api/query", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, KindMethodNotAllowed, decodeError(t, rec).Error.Kind)
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	rec := serve(s, http.MethodGet, "/api/suggestions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Equal(t, lexicon.Default().Suggestions(), all.Suggestions)

	rec = serve(s, http.MethodGet, "/api/suggestions?q=DIABET", "", nil)
	var filtered SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.NotEmpty(t, filtered.Suggestions)
	require.LessOrEqual(t, len(filtered.Suggestions), MaxSuggestions)
	for _, suggestion := range filtered.Suggestions {
		require.Contains(t, strings.ToLower(suggestion), "diabet")
	}

	rec = serve(s, http.MethodGet, "/api/suggestions?q=zzzz", "", nil)
	require.JSONEq(t, `{"suggestions": []}`, rec.Body.String())
}

func TestSuggestionsLimit(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	// a blank filter returns everything
	rec := serve(s, http.MethodGet, "/api/suggestions?q=%20", "", nil)

	var body SuggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Suggestions, len(lexicon.Default().Suggestions()))

	rec = serve(s, http.MethodGet, "/api/suggestions?q=e", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Suggestions, MaxSuggestions)
}

func TestRequestIDPreserved(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := serve(s, http.MethodGet, "/api/health", "", map[string]string{RequestIDHeader: "abc-123"})
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	rec := serve(s, http.MethodGet, "/api/health", "", map[string]string{echo.HeaderOrigin: "http://localhost:3000"})
	require.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = errorHandler
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Recovery(zerolog.Nop())
	err := mw(func(c echo.Context) error {
		panic("boom")
	})(c)

	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusInternalServerError, httpErr.Code)

	errorHandler(err, c)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, KindInternal, decodeError(t, rec).Error.Kind)
}

func TestLoggerMiddleware(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)

	e := echo.New()
	e.HTTPErrorHandler = errorHandler
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(RequestIDKey, "rid-1")

	err := Logger(log)(func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})(c)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))
	require.Equal(t, "request", entry["message"])
	require.Equal(t, "rid-1", entry[RequestIDKey])
	require.Equal(t, "/api/health", entry["path"])
	require.Equal(t, float64(http.StatusTeapot), entry["status"])
}
