package validator

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

// Context tracks, during the walk, which schema element each AST node refers
// to. Rules read it from inside their visitor callbacks; the values are only
// meaningful for the node currently being visited.
type Context struct {
	Schema *schema.Schema
	Doc    *ast.QueryDocument

	parentTypes []*schema.Type
	types       []*schema.TypeRef
	fieldDefs   []*schema.Field
	inputTypes  []*schema.TypeRef
	defaults    []bool
	directive   *schema.Directive
	dirNode     *ast.Directive
	argument    *schema.InputValue
	inVarDef    bool

	// definition is the *ast.OperationDefinition or *ast.FragmentDefinition
	// being walked.
	definition any

	usages  map[any][]VariableUsage
	spreads map[any][]*ast.FragmentSpread
}

// VariableUsage is one occurrence of a variable inside a value position.
type VariableUsage struct {
	Node *ast.Value
	// Type is the type expected at the position, nil when unknown.
	Type *schema.TypeRef
	// HasDefault is set when the position itself declares a default value,
	// which lets a nullable variable flow into a non-null position.
	HasDefault bool
}

func newContext(s *schema.Schema, doc *ast.QueryDocument) *Context {
	return &Context{
		Schema:  s,
		Doc:     doc,
		usages:  make(map[any][]VariableUsage),
		spreads: make(map[any][]*ast.FragmentSpread),
	}
}

// ParentType is the composite type owning the selection set being walked.
func (c *Context) ParentType() *schema.Type { return top(c.parentTypes) }

// Type is the output type of the current field, fragment or operation.
func (c *Context) Type() *schema.TypeRef { return top(c.types) }

// FieldDef is the definition of the current field.
func (c *Context) FieldDef() *schema.Field { return top(c.fieldDefs) }

// InputType is the type expected for the current value.
func (c *Context) InputType() *schema.TypeRef { return top(c.inputTypes) }

// Directive is the definition of the directive being walked, nil when the
// directive is unknown.
func (c *Context) Directive() *schema.Directive { return c.directive }

// DirectiveNode is the directive being walked, nil outside directives.
func (c *Context) DirectiveNode() *ast.Directive { return c.dirNode }

// Argument is the definition of the argument being walked.
func (c *Context) Argument() *schema.InputValue { return c.argument }

// InVariableDefinition reports whether the current value is a variable's
// default value.
func (c *Context) InVariableDefinition() bool { return c.inVarDef }

// Definition returns the operation or fragment being walked.
func (c *Context) Definition() any { return c.definition }

func (c *Context) Fragment(name string) *ast.FragmentDefinition {
	return c.Doc.Fragments.ForName(name)
}

// RecursivelyReferencedFragments lists the fragments reachable from op
// through spreads, each once, in discovery order.
func (c *Context) RecursivelyReferencedFragments(op *ast.OperationDefinition) []*ast.FragmentDefinition {
	var out []*ast.FragmentDefinition
	seen := make(map[string]bool)
	queue := append([]*ast.FragmentSpread(nil), c.spreads[op]...)
	for len(queue) > 0 {
		name := queue[0].Name
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		frag := c.Fragment(name)
		if frag == nil {
			continue
		}
		out = append(out, frag)
		queue = append(queue, c.spreads[frag]...)
	}
	return out
}

// RecursiveVariableUsages lists variable usages in op and in every fragment it
// reaches.
func (c *Context) RecursiveVariableUsages(op *ast.OperationDefinition) []VariableUsage {
	out := append([]VariableUsage(nil), c.usages[op]...)
	for _, frag := range c.RecursivelyReferencedFragments(op) {
		out = append(out, c.usages[frag]...)
	}
	return out
}

// FragmentSpreads are the spreads written directly in def, nested selection
// sets included but other fragments not followed.
func (c *Context) FragmentSpreads(def any) []*ast.FragmentSpread { return c.spreads[def] }

func (c *Context) locationHasDefault() bool {
	if len(c.defaults) == 0 {
		return false
	}
	return c.defaults[len(c.defaults)-1]
}

func top[T any](stack []T) T {
	var zero T
	if len(stack) == 0 {
		return zero
	}
	return stack[len(stack)-1]
}

func pop[T any](stack []T) []T { return stack[:len(stack)-1] }

// indexer builds the per-definition spread and variable-usage tables that
// cross-fragment rules need before the rule walk starts.
func indexer(c *Context) *Visitor {
	return &Visitor{
		EnterFragmentSpread: func(s *ast.FragmentSpread) {
			c.spreads[c.definition] = append(c.spreads[c.definition], s)
		},
		EnterValue: func(v *ast.Value) {
			if v.Kind != ast.Variable || c.inVarDef {
				return
			}
			c.usages[c.definition] = append(c.usages[c.definition], VariableUsage{
				Node:       v,
				Type:       c.InputType(),
				HasDefault: c.locationHasDefault(),
			})
		},
	}
}
