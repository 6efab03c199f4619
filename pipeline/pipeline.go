package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Kuljeet1998/healthcare-nlp/logger"
	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
)

// Pipeline analyzes a request asynchronously. The returned channel yields a
// single JSON document.
type Pipeline func(request Request) <-chan string

type LineResult struct {
	Line   int           `json:"line"`
	Result *types.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

type Response struct {
	Tid            string       `json:"tid"`
	LexiconVersion string       `json:"lexicon_version"`
	Results        []LineResult `json:"results"`
}

// SplitQueries returns the non-blank lines of text, trimmed.
func SplitQueries(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			queries = append(queries, line)
		}
	}
	return queries
}

// NewPipeline analyzes every line of a request concurrently and reports the
// results in input order. A panic while analyzing a line fails only that
// line.
func NewPipeline(analyzer *Analyzer) Pipeline {
	pplnLogger := logger.NewLogger("Analysis pipeline")

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		reqLogger := pplnLogger.With().Str("tid", request.Tid).Logger()

		go func() {
			defer close(responseChan)
			queries := SplitQueries(request.Text)
			reqLogger.Info().Int("queries", len(queries)).Msg("Started analysis pipeline")

			results := make([]LineResult, len(queries))
			var wg sync.WaitGroup
			for i, query := range queries {
				wg.Add(1)
				go func(i int, query string) {
					defer wg.Done()
					results[i].Line = i + 1
					result, err := analyzeSafely(analyzer, query)
					if err != nil {
						reqLogger.Err(err).Int("line", i+1).Msg("Failed to analyze query")
						results[i].Error = err.Error()
						return
					}
					results[i].Result = &result
				}(i, query)
			}
			wg.Wait()

			buf, err := json.Marshal(Response{
				Tid:            request.Tid,
				LexiconVersion: analyzer.Lexicon().Fingerprint(),
				Results:        results,
			})
			if err != nil {
				reqLogger.Err(err).Caller().Msg("Failed to marshal response")
				return
			}
			reqLogger.Info().Msg("Finished analysis pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}
}

func analyzeSafely(analyzer *Analyzer, query string) (result types.Result, err error) {
	defer utils.RecoverWithError(&err)
	result = analyzer.Analyze(query)
	if !result.Intent.Valid() {
		return result, fmt.Errorf("analyzer returned unknown intent %q", result.Intent)
	}
	return result, nil
}
