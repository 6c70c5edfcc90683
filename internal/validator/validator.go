// Package validator checks an executable document against a schema before
// anything runs. Each rule is an independent visitor; a single walk over the
// document drives all of them, and their errors are concatenated in battery
// order so one rule's failure never hides another's.
package validator

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlexec/internal/schema"
)

// Rule is one validation rule. New is called once per validation and returns
// the visitor that inspects the document.
type Rule struct {
	Name string
	New  func(c *Context, r *Reporter) *Visitor
}

// Reporter records errors for a single rule.
type Reporter struct {
	rule string
	errs gqlerror.List
}

// Report adds an error located at every non-nil position.
func (r *Reporter) Report(message string, at ...*ast.Position) {
	err := &gqlerror.Error{Message: message, Rule: r.rule}
	for _, pos := range at {
		if pos != nil {
			err.Locations = append(err.Locations, gqlerror.Location{Line: pos.Line, Column: pos.Column})
		}
	}
	r.errs = append(r.errs, err)
}

func (r *Reporter) Reportf(at *ast.Position, format string, args ...any) {
	r.Report(fmt.Sprintf(format, args...), at)
}

// Rules is the battery run by Validate, in reporting order.
var Rules = []Rule{
	{"UniqueOperationNames", uniqueOperationNames},
	{"LoneAnonymousOperation", loneAnonymousOperation},
	{"KnownOperationTypes", knownOperationTypes},
	{"SingleFieldSubscriptions", singleFieldSubscriptions},
	{"UniqueFragmentNames", uniqueFragmentNames},
	{"KnownFragmentNames", knownFragmentNames},
	{"NoUnusedFragments", noUnusedFragments},
	{"NoFragmentCycles", noFragmentCycles},
	{"KnownTypeNames", knownTypeNames},
	{"FragmentsOnCompositeTypes", fragmentsOnCompositeTypes},
	{"PossibleFragmentSpreads", possibleFragmentSpreads},
	{"FieldsOnCorrectType", fieldsOnCorrectType},
	{"ScalarLeafs", scalarLeafs},
	{"UniqueArgumentNames", uniqueArgumentNames},
	{"KnownArgumentNames", knownArgumentNames},
	{"ProvidedRequiredArguments", providedRequiredArguments},
	{"ValuesOfCorrectType", valuesOfCorrectType},
	{"UniqueInputFieldNames", uniqueInputFieldNames},
	{"UniqueVariableNames", uniqueVariableNames},
	{"VariablesAreInputTypes", variablesAreInputTypes},
	{"NoUndefinedVariables", noUndefinedVariables},
	{"NoUnusedVariables", noUnusedVariables},
	{"VariablesInAllowedPosition", variablesInAllowedPosition},
	{"VariableDefaultValuesOfCorrectType", variableDefaultValuesOfCorrectType},
	{"KnownDirectives", knownDirectives},
	{"UniqueDirectivesPerLocation", uniqueDirectivesPerLocation},
	{"OverlappingFieldsCanBeMerged", overlappingFieldsCanBeMerged},
}

// Validate runs the full battery. An empty result means the document may be
// executed.
func Validate(s *schema.Schema, doc *ast.QueryDocument) gqlerror.List {
	return ValidateWithRules(s, doc, Rules)
}

// ValidateWithRules runs the given rules only, in the given order.
func ValidateWithRules(s *schema.Schema, doc *ast.QueryDocument, rules []Rule) gqlerror.List {
	if doc == nil {
		return gqlerror.List{&gqlerror.Error{Message: "Must provide document."}}
	}
	c := newContext(s, doc)
	walk(c, indexer(c))

	reporters := make([]*Reporter, len(rules))
	visitors := make([]*Visitor, len(rules))
	for i, rule := range rules {
		reporters[i] = &Reporter{rule: rule.Name}
		visitors[i] = rule.New(c, reporters[i])
	}
	walk(c, visitors...)

	var out gqlerror.List
	for _, r := range reporters {
		out = append(out, r.errs...)
	}
	return out
}
