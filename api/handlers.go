package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/labstack/echo/v4"
)

type QueryResponse struct {
	RequestID string       `json:"request_id"`
	Timestamp time.Time    `json:"timestamp"`
	Cached    bool         `json:"cached"`
	Result    types.Result `json:"result"`
}

type HealthResponse struct {
	Status         string    `json:"status"`
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	LexiconVersion string    `json:"lexicon_version"`
}

type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		Service:        ServiceName,
		Version:        ServiceVersion,
		Timestamp:      s.now().UTC(),
		LexiconVersion: s.analyzer.Lexicon().Fingerprint(),
	})
}

// decodeQuery accepts only a JSON object with a string "query" field.
func (s *Server) decodeQuery(body io.Reader) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return "", invalidInput("body must be a JSON object")
	}
	raw, ok := fields["query"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", invalidInput("missing 'query' parameter")
	}
	var query string
	if err := json.Unmarshal(raw, &query); err != nil {
		return "", invalidInput("'query' must be a string")
	}
	if s.cfg.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.cfg.MaxQueryLength {
		return "", invalidInput("'query' is longer than %d characters", s.cfg.MaxQueryLength)
	}
	return query, nil
}

func (s *Server) query(c echo.Context) error {
	log := makeRequestLogger(s.log, c)

	query, err := s.decodeQuery(c.Request().Body)
	if err != nil {
		log.Warn().Err(err).Int("status", http.StatusBadRequest).Msg("Rejected query request")
		return err
	}

	result, cached := s.analyze(query)
	log.Info().
		Str("intent", string(result.Intent)).
		Str("intent_rule", result.IntentRule).
		Float64("confidence", result.Confidence).
		Bool("cached", cached).
		Msg("Processed query")

	return c.JSON(http.StatusOK, QueryResponse{
		RequestID: requestID(c),
		Timestamp: s.now().UTC(),
		Cached:    cached,
		Result:    result,
	})
}

func (s *Server) suggestions(c echo.Context) error {
	all := s.analyzer.Lexicon().Suggestions()
	q := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	if q == "" {
		return c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: all})
	}

	filtered := []string{}
	for _, suggestion := range all {
		if strings.Contains(strings.ToLower(suggestion), q) {
			filtered = append(filtered, suggestion)
			if len(filtered) == MaxSuggestions {
				break
			}
		}
	}
	return c.JSON(http.StatusOK, SuggestionsResponse{Suggestions: filtered})
}
