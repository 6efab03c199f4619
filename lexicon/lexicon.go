package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Kuljeet1998/healthcare-nlp/types"
	"github.com/Kuljeet1998/healthcare-nlp/utils"
	"gopkg.in/yaml.v3"
)

const (
	SeveritySevere   = "severe"
	SeverityModerate = "moderate"
	SeverityMild     = "mild"
)

// Keyword list names.
const (
	KeywordEmergency          = "emergency"
	KeywordEmergencyCompanion = "emergency_companion"
	KeywordEmergencyQualifier = "emergency_qualifier"
	KeywordEmergencyQualified = "emergency_qualified"
	KeywordDistress           = "distress"
	KeywordCritical           = "critical"
	KeywordUrgent             = "urgent"
	KeywordSchedule           = "schedule"
	KeywordMedication         = "medication"
	KeywordObservation        = "observation"
	KeywordCondition          = "condition"
	KeywordPatient            = "patient"
	KeywordPopulation         = "population"
	KeywordActiveStatus       = "active_status"
	KeywordResolvedStatus     = "resolved_status"
	KeywordWorry              = "worry"
	KeywordHelpSeeking        = "help_seeking"
	KeywordPositive           = "positive"
	KeywordNegative           = "negative"
	KeywordNegation           = "negation"
)

// Recommendation template names.
const (
	TemplateEmergency    = "emergency"
	TemplateHigh         = "high"
	TemplateMedium       = "medium"
	TemplateFallback     = "fallback"
	TemplateConditions   = "conditions"
	TemplateMedications  = "medications"
	TemplateObservations = "observations"
	TemplateReview       = "review"
)

var (
	ErrEmptyName       = errors.New("lexicon: concept without name")
	ErrDuplicateTerm   = errors.New("lexicon: duplicate term")
	ErrUnknownSeverity = errors.New("lexicon: unknown severity class")
)

//go:embed default.yaml
var defaultDocument []byte

type Concept struct {
	Name            string   `yaml:"name" json:"name"`
	Code            string   `yaml:"code,omitempty" json:"code,omitempty"`
	System          string   `yaml:"system,omitempty" json:"system,omitempty"`
	Display         string   `yaml:"display,omitempty" json:"display,omitempty"`
	Category        string   `yaml:"category,omitempty" json:"category,omitempty"`
	Class           string   `yaml:"class,omitempty" json:"class,omitempty"`
	Severity        string   `yaml:"severity,omitempty" json:"severity,omitempty"`
	Aliases         []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Diagnoses       []string `yaml:"diagnoses,omitempty" json:"diagnoses,omitempty"`
	Recommendations []string `yaml:"recommendations,omitempty" json:"recommendations,omitempty"`
	Assessments     []string `yaml:"assessments,omitempty" json:"assessments,omitempty"`
}

// CodeParam renders the concept as a FHIR token search value.
func (c Concept) CodeParam() string {
	if c.System == "" {
		return c.Code
	}
	return c.System + "|" + c.Code
}

// Label is the display text, or the name when no display is set.
func (c Concept) Label() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Name
}

type Specialty struct {
	Name       string   `yaml:"name"`
	Indicators []string `yaml:"indicators"`
}

// Document is the YAML shape of a lexicon file.
type Document struct {
	Version         string              `yaml:"version"`
	Conditions      []Concept           `yaml:"conditions"`
	Observations    []Concept           `yaml:"observations"`
	Medications     []Concept           `yaml:"medications"`
	Symptoms        []Concept           `yaml:"symptoms"`
	BodyParts       []Concept           `yaml:"body_parts"`
	Severities      []Concept           `yaml:"severities"`
	Keywords        map[string][]string `yaml:"keywords"`
	UrgencyWeights  map[string]int      `yaml:"urgency_weights"`
	Specialties     []Specialty         `yaml:"specialties"`
	Recommendations map[string][]string `yaml:"recommendations"`
	Suggestions     []string            `yaml:"suggestions"`
}

// Lexicon is immutable once built and safe for concurrent use.
type Lexicon struct {
	doc         Document
	concepts    map[types.Category][]Concept
	byTerm      map[types.Category]map[string]int
	phrases     map[types.Category]*PhraseSet
	keywords    map[string]*PhraseSet
	urgency     *PhraseSet
	fingerprint string
}

var (
	defaultOnce    sync.Once
	defaultLexicon *Lexicon
)

// Default returns the built-in lexicon. It panics if the embedded document is
// invalid, which the package tests guard against.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		lex, err := Parse(defaultDocument)
		if err != nil {
			panic(fmt.Errorf("default lexicon: %w", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

func Load(filePath string) (*Lexicon, error) {
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	lex, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return lex, nil
}

func Parse(buf []byte) (*Lexicon, error) {
	var doc Document
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	return New(doc)
}

// New validates doc and builds the lookup structures.
func New(doc Document) (*Lexicon, error) {
	lex := &Lexicon{
		doc: doc,
		concepts: map[types.Category][]Concept{
			types.CategoryConditions:         doc.Conditions,
			types.CategoryObservations:       doc.Observations,
			types.CategoryMedications:        doc.Medications,
			types.CategorySymptoms:           doc.Symptoms,
			types.CategoryBodyParts:          doc.BodyParts,
			types.CategorySeverityIndicators: doc.Severities,
		},
		byTerm:   make(map[types.Category]map[string]int),
		phrases:  make(map[types.Category]*PhraseSet),
		keywords: make(map[string]*PhraseSet, len(doc.Keywords)),
	}

	for category, concepts := range lex.concepts {
		terms := make(map[string]int)
		ps := NewPhraseSet()
		for i, concept := range concepts {
			if strings.TrimSpace(concept.Name) == "" {
				return nil, fmt.Errorf("%w in %s at #%d", ErrEmptyName, category, i)
			}
			if category == types.CategorySeverityIndicators {
				switch concept.Severity {
				case SeveritySevere, SeverityModerate, SeverityMild:
				default:
					return nil, fmt.Errorf("%w %q for %q", ErrUnknownSeverity, concept.Severity, concept.Name)
				}
			}
			for _, term := range append([]string{concept.Name}, concept.Aliases...) {
				key := normalizeTerm(term)
				if _, ok := terms[key]; ok {
					return nil, fmt.Errorf("%w %q in %s", ErrDuplicateTerm, term, category)
				}
				terms[key] = i
				ps.add(key, concept.Name)
			}
		}
		lex.byTerm[category] = terms
		lex.phrases[category] = ps
	}

	for name, list := range doc.Keywords {
		lex.keywords[name] = NewPhraseSet(list...)
	}

	weighted := make([]string, 0, len(doc.UrgencyWeights))
	for phrase := range doc.UrgencyWeights {
		weighted = append(weighted, phrase)
	}
	lex.urgency = NewPhraseSet(weighted...)

	canonical, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("lexicon: fingerprint: %w", err)
	}
	lex.fingerprint = fmt.Sprintf("%016x", utils.HashBytes(canonical))
	return lex, nil
}

func normalizeTerm(term string) string {
	return strings.Join(Tokenize(strings.ToLower(term)), " ")
}

func (lex *Lexicon) Version() string {
	return lex.doc.Version
}

// Fingerprint identifies the lexicon content independently of YAML layout.
func (lex *Lexicon) Fingerprint() string {
	return lex.fingerprint
}

// Lookup finds a concept by canonical name or alias, case-insensitively.
func (lex *Lexicon) Lookup(category types.Category, term string) (Concept, bool) {
	terms, ok := lex.byTerm[category]
	if !ok {
		return Concept{}, false
	}
	i, ok := terms[normalizeTerm(term)]
	if !ok {
		return Concept{}, false
	}
	return lex.concepts[category][i], true
}

// Concepts returns a copy of a category's table.
func (lex *Lexicon) Concepts(category types.Category) []Concept {
	return append([]Concept(nil), lex.concepts[category]...)
}

// Phrases returns the phrase matcher of a concept category; values are
// canonical names. Unknown categories get an empty set.
func (lex *Lexicon) Phrases(category types.Category) *PhraseSet {
	if ps, ok := lex.phrases[category]; ok {
		return ps
	}
	return NewPhraseSet()
}

// Keywords returns a named keyword list. Unknown lists are empty.
func (lex *Lexicon) Keywords(name string) *PhraseSet {
	if ps, ok := lex.keywords[name]; ok {
		return ps
	}
	return NewPhraseSet()
}

// UrgencyPhrases matches the phrases that carry an urgency weight.
func (lex *Lexicon) UrgencyPhrases() *PhraseSet {
	return lex.urgency
}

func (lex *Lexicon) UrgencyWeight(phrase string) int {
	return lex.doc.UrgencyWeights[phrase]
}

func (lex *Lexicon) Specialties() []Specialty {
	return append([]Specialty(nil), lex.doc.Specialties...)
}

func (lex *Lexicon) Template(name string) []string {
	return append([]string(nil), lex.doc.Recommendations[name]...)
}

func (lex *Lexicon) Suggestions() []string {
	return append([]string(nil), lex.doc.Suggestions...)
}
