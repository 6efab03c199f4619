package intent

import (
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

type Classifier struct {
	rules []Rule
}

func New(lex *lexicon.Lexicon) *Classifier {
	return NewWithRules(DefaultRules(lex))
}

func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the intent of the first matching rule and that rule's
// name. With no match it returns general_inquiry and RuleDefault.
func (c *Classifier) Classify(tokens []string, entities types.EntitySet) (types.Intent, string) {
	s := Signals{Tokens: tokens, Entities: entities}
	for _, rule := range c.rules {
		if rule.Matches(s) {
			return rule.Intent, rule.Name
		}
	}
	return types.IntentGeneralInquiry, RuleDefault
}
