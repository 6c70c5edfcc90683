package validator

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

// Visitor holds the callbacks one rule is interested in. Nil callbacks are
// skipped.
type Visitor struct {
	EnterOperation          func(op *ast.OperationDefinition)
	LeaveOperation          func(op *ast.OperationDefinition)
	EnterFragment           func(frag *ast.FragmentDefinition)
	LeaveFragment           func(frag *ast.FragmentDefinition)
	EnterVariableDefinition func(v *ast.VariableDefinition)
	EnterSelectionSet       func(set ast.SelectionSet)
	EnterField              func(f *ast.Field)
	LeaveField              func(f *ast.Field)
	EnterInlineFragment     func(f *ast.InlineFragment)
	EnterFragmentSpread     func(s *ast.FragmentSpread)
	EnterDirectives         func(dirs ast.DirectiveList, location string)
	EnterDirective          func(d *ast.Directive, location string)
	EnterArguments          func(args ast.ArgumentList)
	EnterArgument           func(arg *ast.Argument)
	EnterValue              func(v *ast.Value)
	LeaveDocument           func()
}

type walker struct {
	c  *Context
	vs []*Visitor
}

func walk(c *Context, vs ...*Visitor) {
	w := &walker{c: c, vs: vs}
	for _, op := range c.Doc.Operations {
		w.walkOperation(op)
	}
	for _, frag := range c.Doc.Fragments {
		w.walkFragment(frag)
	}
	for _, v := range vs {
		if v.LeaveDocument != nil {
			v.LeaveDocument()
		}
	}
}

func (w *walker) each(fn func(v *Visitor)) {
	for _, v := range w.vs {
		fn(v)
	}
}

func operationLocation(op ast.Operation) string {
	switch op {
	case ast.Mutation:
		return "MUTATION"
	case ast.Subscription:
		return "SUBSCRIPTION"
	default:
		return "QUERY"
	}
}

func namedRef(t *schema.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	return schema.NamedType(t.Name)
}

func (w *walker) walkOperation(op *ast.OperationDefinition) {
	c := w.c
	c.definition = op
	c.types = append(c.types, namedRef(c.Schema.RootType(op.Operation)))
	w.each(func(v *Visitor) {
		if v.EnterOperation != nil {
			v.EnterOperation(op)
		}
	})
	for _, vd := range op.VariableDefinitions {
		w.walkVariableDefinition(vd)
	}
	w.walkDirectives(op.Directives, operationLocation(op.Operation))
	w.walkSelectionSet(op.SelectionSet)
	w.each(func(v *Visitor) {
		if v.LeaveOperation != nil {
			v.LeaveOperation(op)
		}
	})
	c.types = pop(c.types)
	c.definition = nil
}

func (w *walker) walkFragment(frag *ast.FragmentDefinition) {
	c := w.c
	c.definition = frag
	var ref *schema.TypeRef
	if c.Schema.Type(frag.TypeCondition) != nil {
		ref = schema.NamedType(frag.TypeCondition)
	}
	c.types = append(c.types, ref)
	w.each(func(v *Visitor) {
		if v.EnterFragment != nil {
			v.EnterFragment(frag)
		}
	})
	w.walkDirectives(frag.Directives, "FRAGMENT_DEFINITION")
	w.walkSelectionSet(frag.SelectionSet)
	w.each(func(v *Visitor) {
		if v.LeaveFragment != nil {
			v.LeaveFragment(frag)
		}
	})
	c.types = pop(c.types)
	c.definition = nil
}

func (w *walker) walkVariableDefinition(vd *ast.VariableDefinition) {
	c := w.c
	w.each(func(v *Visitor) {
		if v.EnterVariableDefinition != nil {
			v.EnterVariableDefinition(vd)
		}
	})
	if vd.DefaultValue != nil {
		var ref *schema.TypeRef
		if t := c.Schema.Type(vd.Type.Name()); t.IsInputType() {
			ref = schema.TypeRefFromAST(vd.Type)
		}
		c.inVarDef = true
		w.walkValue(ref, vd.DefaultValue, false)
		c.inVarDef = false
	}
	w.walkDirectives(vd.Directives, "VARIABLE_DEFINITION")
}

func (w *walker) walkSelectionSet(set ast.SelectionSet) {
	c := w.c
	var parent *schema.Type
	if t := c.Schema.Named(c.Type()); t.IsComposite() {
		parent = t
	}
	c.parentTypes = append(c.parentTypes, parent)
	w.each(func(v *Visitor) {
		if v.EnterSelectionSet != nil {
			v.EnterSelectionSet(set)
		}
	})
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			w.walkField(sel)
		case *ast.InlineFragment:
			ref := c.Type()
			if sel.TypeCondition != "" {
				ref = nil
				if c.Schema.Type(sel.TypeCondition) != nil {
					ref = schema.NamedType(sel.TypeCondition)
				}
			}
			c.types = append(c.types, ref)
			w.each(func(v *Visitor) {
				if v.EnterInlineFragment != nil {
					v.EnterInlineFragment(sel)
				}
			})
			w.walkDirectives(sel.Directives, "INLINE_FRAGMENT")
			w.walkSelectionSet(sel.SelectionSet)
			c.types = pop(c.types)
		case *ast.FragmentSpread:
			w.each(func(v *Visitor) {
				if v.EnterFragmentSpread != nil {
					v.EnterFragmentSpread(sel)
				}
			})
			w.walkDirectives(sel.Directives, "FRAGMENT_SPREAD")
		}
	}
	c.parentTypes = pop(c.parentTypes)
}

func (w *walker) walkField(f *ast.Field) {
	c := w.c
	def := c.Schema.Field(c.ParentType(), f.Name)
	var ref *schema.TypeRef
	if def != nil {
		ref = def.Type
	}
	c.fieldDefs = append(c.fieldDefs, def)
	c.types = append(c.types, ref)
	w.each(func(v *Visitor) {
		if v.EnterField != nil {
			v.EnterField(f)
		}
	})
	w.walkArguments(f.Arguments, func(name string) *schema.InputValue {
		if def == nil {
			return nil
		}
		return def.Argument(name)
	})
	w.walkDirectives(f.Directives, "FIELD")
	if len(f.SelectionSet) > 0 {
		w.walkSelectionSet(f.SelectionSet)
	}
	w.each(func(v *Visitor) {
		if v.LeaveField != nil {
			v.LeaveField(f)
		}
	})
	c.types = pop(c.types)
	c.fieldDefs = pop(c.fieldDefs)
}

func (w *walker) walkDirectives(dirs ast.DirectiveList, location string) {
	c := w.c
	w.each(func(v *Visitor) {
		if v.EnterDirectives != nil {
			v.EnterDirectives(dirs, location)
		}
	})
	for _, d := range dirs {
		def := c.Schema.Directives[d.Name]
		c.directive, c.dirNode = def, d
		w.each(func(v *Visitor) {
			if v.EnterDirective != nil {
				v.EnterDirective(d, location)
			}
		})
		w.walkArguments(d.Arguments, func(name string) *schema.InputValue {
			if def == nil {
				return nil
			}
			return def.Argument(name)
		})
		c.directive, c.dirNode = nil, nil
	}
}

func (w *walker) walkArguments(args ast.ArgumentList, lookup func(name string) *schema.InputValue) {
	c := w.c
	w.each(func(v *Visitor) {
		if v.EnterArguments != nil {
			v.EnterArguments(args)
		}
	})
	for _, arg := range args {
		def := lookup(arg.Name)
		c.argument = def
		w.each(func(v *Visitor) {
			if v.EnterArgument != nil {
				v.EnterArgument(arg)
			}
		})
		var ref *schema.TypeRef
		hasDefault := false
		if def != nil {
			ref, hasDefault = def.Type, def.HasDefault()
		}
		w.walkValue(ref, arg.Value, hasDefault)
		c.argument = nil
	}
}

func (w *walker) walkValue(ref *schema.TypeRef, val *ast.Value, hasDefault bool) {
	if val == nil {
		return
	}
	c := w.c
	c.inputTypes = append(c.inputTypes, ref)
	c.defaults = append(c.defaults, hasDefault)
	w.each(func(v *Visitor) {
		if v.EnterValue != nil {
			v.EnterValue(val)
		}
	})
	switch val.Kind {
	case ast.ListValue:
		elem := ref
		if ref != nil && ref.Nullable().Kind == schema.TypeRefKindList {
			elem = ref.Nullable().OfType
		}
		for _, child := range val.Children {
			w.walkValue(elem, child.Value, false)
		}
	case ast.ObjectValue:
		t := c.Schema.Named(ref)
		for _, child := range val.Children {
			var fieldRef *schema.TypeRef
			fieldDefault := false
			if t != nil && t.Kind == schema.TypeKindInputObject {
				if f := t.InputField(child.Name); f != nil {
					fieldRef, fieldDefault = f.Type, f.HasDefault()
				}
			}
			w.walkValue(fieldRef, child.Value, fieldDefault)
		}
	}
	c.defaults = pop(c.defaults)
	c.inputTypes = pop(c.inputTypes)
}
