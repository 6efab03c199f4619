package interpret

import (
	"github.com/Kuljeet1998/healthcare-nlp/lexicon"
	"github.com/Kuljeet1998/healthcare-nlp/types"
)

// QueryRecommendations extends the interpretation's advice with review
// steps for the kinds of data the query touches. Without any, the general
// review template applies.
func (in *Interpreter) QueryRecommendations(interpretation types.ClinicalInterpretation, entities types.EntitySet) []string {
	out := appendUnique(nil, interpretation.Recommendations...)

	reviewed := false
	for _, section := range []struct {
		category types.Category
		template string
	}{
		{types.CategoryConditions, lexicon.TemplateConditions},
		{types.CategoryMedications, lexicon.TemplateMedications},
		{types.CategoryObservations, lexicon.TemplateObservations},
	} {
		if entities.Len(section.category) == 0 {
			continue
		}
		reviewed = true
		out = appendUnique(out, in.lex.Template(section.template)...)
	}
	if !reviewed {
		out = appendUnique(out, in.lex.Template(lexicon.TemplateReview)...)
	}
	return nonNil(out)
}
