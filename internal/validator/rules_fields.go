package validator

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

func fieldsOnCorrectType(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterField: func(f *ast.Field) {
			if parent := c.ParentType(); parent != nil && c.FieldDef() == nil {
				r.Reportf(f.Position, `Cannot query field "%s" on type "%s".`, f.Name, parent.Name)
			}
		},
	}
}

func scalarLeafs(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterField: func(f *ast.Field) {
			ref := c.Type()
			t := c.Schema.Named(ref)
			if t == nil {
				return
			}
			if t.IsLeaf() && len(f.SelectionSet) > 0 {
				r.Reportf(f.Position, `Field "%s" must not have a selection since type "%s" has no subfields.`, f.Name, ref)
			}
			if !t.IsLeaf() && len(f.SelectionSet) == 0 {
				r.Reportf(f.Position, `Field "%s" of type "%s" must have a selection of subfields. Did you mean "%s { ... }"?`, f.Name, ref, f.Name)
			}
		},
	}
}

func uniqueArgumentNames(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterArguments: func(args ast.ArgumentList) {
			seen := make(map[string]*ast.Argument, len(args))
			for _, arg := range args {
				if prev, ok := seen[arg.Name]; ok {
					r.Report(fmt.Sprintf(`There can be only one argument named "%s".`, arg.Name), prev.Position, arg.Position)
					continue
				}
				seen[arg.Name] = arg
			}
		},
	}
}

func knownArgumentNames(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterArgument: func(arg *ast.Argument) {
			if c.Argument() != nil {
				return
			}
			if d := c.DirectiveNode(); d != nil {
				if c.Directive() != nil {
					r.Reportf(arg.Position, `Unknown argument "%s" on directive "@%s".`, arg.Name, d.Name)
				}
				return
			}
			if def, parent := c.FieldDef(), c.ParentType(); def != nil && parent != nil {
				r.Reportf(arg.Position, `Unknown argument "%s" on field "%s.%s".`, arg.Name, parent.Name, def.Name)
			}
		},
	}
}

func providedRequiredArguments(c *Context, r *Reporter) *Visitor {
	required := func(defs []*schema.InputValue, given ast.ArgumentList, report func(arg *schema.InputValue)) {
		for _, def := range defs {
			if def.Type.IsNonNull() && !def.HasDefault() && given.ForName(def.Name) == nil {
				report(def)
			}
		}
	}
	return &Visitor{
		EnterField: func(f *ast.Field) {
			def := c.FieldDef()
			if def == nil {
				return
			}
			required(def.Arguments, f.Arguments, func(arg *schema.InputValue) {
				r.Reportf(f.Position, `Field "%s" argument "%s" of type "%s" is required, but it was not provided.`, f.Name, arg.Name, arg.Type)
			})
		},
		EnterDirective: func(d *ast.Directive, _ string) {
			def := c.Directive()
			if def == nil {
				return
			}
			required(def.Arguments, d.Arguments, func(arg *schema.InputValue) {
				r.Reportf(d.Position, `Directive "@%s" argument "%s" of type "%s" is required, but it was not provided.`, d.Name, arg.Name, arg.Type)
			})
		},
	}
}

func valuesOfCorrectType(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterValue: func(v *ast.Value) {
			if !c.InVariableDefinition() {
				checkLiteral(c, r, v)
			}
		},
	}
}

func variableDefaultValuesOfCorrectType(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterValue: func(v *ast.Value) {
			if c.InVariableDefinition() {
				checkLiteral(c, r, v)
			}
		},
	}
}

// checkLiteral inspects a single value node against the type expected at its
// position. Children are visited separately by the walker.
func checkLiteral(c *Context, r *Reporter, v *ast.Value) {
	ref := c.InputType()
	if ref == nil {
		return
	}
	switch v.Kind {
	case ast.Variable:
		return
	case ast.NullValue:
		if ref.IsNonNull() {
			r.Reportf(v.Position, `Expected value of type "%s", found null.`, ref)
		}
		return
	case ast.ListValue:
		if ref.Nullable().Kind == schema.TypeRefKindList {
			return
		}
		checkLeaf(c, r, ref, v)
		return
	case ast.ObjectValue:
		t := c.Schema.Named(ref)
		if t == nil || t.Kind != schema.TypeKindInputObject {
			checkLeaf(c, r, ref, v)
			return
		}
		for _, field := range t.InputFields {
			if field.Type.IsNonNull() && !field.HasDefault() && v.Children.ForName(field.Name) == nil {
				r.Reportf(v.Position, `Field "%s.%s" of required type "%s" was not provided.`, t.Name, field.Name, field.Type)
			}
		}
		for _, child := range v.Children {
			if t.InputField(child.Name) == nil {
				r.Reportf(child.Position, `Field "%s" is not defined by type "%s".`, child.Name, t.Name)
			}
		}
		return
	}
	checkLeaf(c, r, ref, v)
}

func checkLeaf(c *Context, r *Reporter, ref *schema.TypeRef, v *ast.Value) {
	t := c.Schema.Named(ref)
	if t == nil {
		return
	}
	if !t.IsLeaf() {
		r.Reportf(v.Position, `Expected value of type "%s", found %s.`, ref, v.String())
		return
	}
	if _, err := c.Schema.CoerceLiteral(schema.NamedType(t.Name), v, nil); err != nil {
		var inputErr *schema.InputError
		if errors.As(err, &inputErr) {
			r.Report(inputErr.Message, v.Position)
			return
		}
		r.Reportf(v.Position, `Expected value of type "%s", found %s; %s`, ref, v.String(), err)
	}
}

func uniqueInputFieldNames(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterValue: func(v *ast.Value) {
			if v.Kind != ast.ObjectValue {
				return
			}
			seen := make(map[string]*ast.ChildValue, len(v.Children))
			for _, child := range v.Children {
				if prev, ok := seen[child.Name]; ok {
					r.Report(fmt.Sprintf(`There can be only one input field named "%s".`, child.Name), prev.Position, child.Position)
					continue
				}
				seen[child.Name] = child
			}
		},
	}
}
