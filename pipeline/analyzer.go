package pipeline

import (
	"errors"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/confidence"
	"github.com/Kuljeet1998/healthcare-nlp/extract"
	"github.com/Kuljeet1998/healthcare-nlp/fhir"
	"github.com/Kuljeet1998/healthcare-nlp/intent"
	"github.com/Kuljeet1998/healthcare-nlp/interpret"
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/sentiment"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

var ErrNoLexicon = errors.New("analyzer requires a lexicon")

// Analyzer runs extraction, intent, sentiment, confidence, query building and
// interpretation for one query. It holds no mutable state and is safe for
// concurrent use.
type Analyzer struct {
	lex         *lexicon.Lexicon
	extractor   *extract.Extractor
	classifier  *intent.Classifier
	sentiment   *sentiment.Analyzer
	builder     *fhir.Builder
	interpreter *interpret.Interpreter
}

type analyzerOptions struct {
	builderOpts []fhir.Option
	matchers    []extract.Matcher
	rules       []intent.Rule
}

type Option func(o *analyzerOptions)

func WithBaseURL(baseURL string) Option {
	return func(o *analyzerOptions) {
		o.builderOpts = append(o.builderOpts, fhir.WithBaseURL(baseURL))
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *analyzerOptions) {
		o.builderOpts = append(o.builderOpts, fhir.WithClock(now))
	}
}

// WithMatchers appends matchers after the default ones.
func WithMatchers(matchers ...extract.Matcher) Option {
	return func(o *analyzerOptions) {
		o.matchers = append(o.matchers, matchers...)
	}
}

// WithRules replaces the default intent rules.
func WithRules(rules []intent.Rule) Option {
	return func(o *analyzerOptions) {
		o.rules = rules
	}
}

func NewAnalyzer(lex *lexicon.Lexicon, opts ...Option) (*Analyzer, error) {
	if lex == nil {
		return nil, ErrNoLexicon
	}
	var o analyzerOptions
	for _, opt := range opts {
		opt(&o)
	}

	classifier := intent.New(lex)
	if o.rules != nil {
		classifier = intent.NewWithRules(o.rules)
	}

	return &Analyzer{
		lex:         lex,
		extractor:   extract.New(lex, o.matchers...),
		classifier:  classifier,
		sentiment:   sentiment.New(lex),
		builder:     fhir.NewBuilder(lex, o.builderOpts...),
		interpreter: interpret.New(lex),
	}, nil
}

func (a *Analyzer) Lexicon() *lexicon.Lexicon {
	return a.lex
}

// Analyze never fails: text without any recognisable content yields empty
// entities, general_inquiry and the generic recommendation.
func (a *Analyzer) Analyze(query string) types.Result {
	q := extract.NewQuery(query)
	entities := a.extractor.Run(q)
	in, rule := a.classifier.Classify(q.Tokens, entities)
	sent := a.sentiment.Analyze(q.Tokens, entities)
	interpretation := a.interpreter.Interpret(in, entities, sent)

	return types.Result{
		Query:                  query,
		Entities:               entities,
		Intent:                 in,
		IntentRule:             rule,
		Confidence:             confidence.Score(entities, in, sent),
		Sentiment:              sent,
		FHIRQuery:              a.builder.Build(in, entities, q.Tokens),
		ClinicalInterpretation: interpretation,
		Recommendations:        a.interpreter.QueryRecommendations(interpretation, entities),
		DataRequirements:       interpret.DataRequirements(in, entities),
		LexiconVersion:         a.lex.Fingerprint(),
	}
}
