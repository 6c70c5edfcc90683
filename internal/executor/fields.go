package executor

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

// collectedFieldMap preserves field order from the original query
type collectedFieldMap struct {
	fields []*collectedField
	index  map[string]int
}

// collectedField is one response key and every AST field merged into it.
type collectedField struct {
	ResponseName string
	Fields       []*ast.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: make(map[string]int)}
}

func (cfm *collectedFieldMap) add(responseName string, field *ast.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, &collectedField{ResponseName: responseName, Fields: []*ast.Field{field}})
}

// collectFields groups the fields of selectionSet that apply to objectType by
// response key, in first-seen order.
func (ex *execution) collectFields(objectType *schema.Type, selectionSet ast.SelectionSet) []*collectedField {
	groupedFields := newCollectedFieldMap()
	ex.collectFieldsImpl(objectType, selectionSet, groupedFields, make(map[string]bool))
	return groupedFields.fields
}

// collectSubfields merges the sub-selections of every node sharing one
// response key.
func (ex *execution) collectSubfields(objectType *schema.Type, nodes []*ast.Field) []*collectedField {
	groupedFields := newCollectedFieldMap()
	visitedFragments := make(map[string]bool)
	for _, node := range nodes {
		ex.collectFieldsImpl(objectType, node.SelectionSet, groupedFields, visitedFragments)
	}
	return groupedFields.fields
}

func (ex *execution) collectFieldsImpl(objectType *schema.Type, selectionSet ast.SelectionSet, groupedFields *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *ast.Field:
			if !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			groupedFields.add(responseName, sel)

		case *ast.InlineFragment:
			if !ex.shouldIncludeNode(sel.Directives) || !ex.doesFragmentTypeApply(objectType, sel.TypeCondition) {
				continue
			}
			ex.collectFieldsImpl(objectType, sel.SelectionSet, groupedFields, visitedFragments)

		case *ast.FragmentSpread:
			if visitedFragments[sel.Name] || !ex.shouldIncludeNode(sel.Directives) {
				continue
			}
			visitedFragments[sel.Name] = true
			fragment := ex.doc.Fragments.ForName(sel.Name)
			if fragment == nil || !ex.doesFragmentTypeApply(objectType, fragment.TypeCondition) {
				continue
			}
			ex.collectFieldsImpl(objectType, fragment.SelectionSet, groupedFields, visitedFragments)
		}
	}
}

// doesFragmentTypeApply reports whether objects of objectType match the
// fragment's type condition, directly or through an interface or union.
func (ex *execution) doesFragmentTypeApply(objectType *schema.Type, condition string) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	t := ex.schema.Type(condition)
	if !t.IsAbstract() {
		return false
	}
	return ex.schema.IsPossibleType(t, objectType.Name)
}

// shouldIncludeNode evaluates @skip and @include.
func (ex *execution) shouldIncludeNode(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && ex.directiveIf(d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !ex.directiveIf(d) {
		return false
	}
	return true
}

func (ex *execution) directiveIf(d *ast.Directive) bool {
	def := ex.schema.Directives[d.Name]
	if def == nil {
		return false
	}
	args, err := coerceArguments(ex.schema, def.Arguments, d.Arguments, ex.vars)
	if err != nil {
		return false
	}
	return args["if"].Bool()
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*ast.Field) ast.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var merged ast.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}
