package validator

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

func uniqueVariableNames(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterOperation: func(op *ast.OperationDefinition) {
			seen := make(map[string]*ast.VariableDefinition)
			for _, vd := range op.VariableDefinitions {
				if prev, ok := seen[vd.Variable]; ok {
					r.Report(fmt.Sprintf(`There can be only one variable named "$%s".`, vd.Variable), prev.Position, vd.Position)
					continue
				}
				seen[vd.Variable] = vd
			}
		},
	}
}

func variablesAreInputTypes(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterVariableDefinition: func(vd *ast.VariableDefinition) {
			if t := c.Schema.Type(vd.Type.Name()); t != nil && !t.IsInputType() {
				r.Reportf(vd.Position, `Variable "$%s" cannot be non-input type "%s".`, vd.Variable, vd.Type.String())
			}
		},
	}
}

func noUndefinedVariables(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		LeaveOperation: func(op *ast.OperationDefinition) {
			for _, u := range c.RecursiveVariableUsages(op) {
				if op.VariableDefinitions.ForName(u.Node.Raw) != nil {
					continue
				}
				if op.Name != "" {
					r.Report(fmt.Sprintf(`Variable "$%s" is not defined by operation "%s".`, u.Node.Raw, op.Name), u.Node.Position, op.Position)
				} else {
					r.Report(fmt.Sprintf(`Variable "$%s" is not defined.`, u.Node.Raw), u.Node.Position, op.Position)
				}
			}
		},
	}
}

func noUnusedVariables(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		LeaveOperation: func(op *ast.OperationDefinition) {
			used := make(map[string]bool)
			for _, u := range c.RecursiveVariableUsages(op) {
				used[u.Node.Raw] = true
			}
			for _, vd := range op.VariableDefinitions {
				if used[vd.Variable] {
					continue
				}
				if op.Name != "" {
					r.Reportf(vd.Position, `Variable "$%s" is never used in operation "%s".`, vd.Variable, op.Name)
				} else {
					r.Reportf(vd.Position, `Variable "$%s" is never used.`, vd.Variable)
				}
			}
		},
	}
}

func variablesInAllowedPosition(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		LeaveOperation: func(op *ast.OperationDefinition) {
			for _, u := range c.RecursiveVariableUsages(op) {
				vd := op.VariableDefinitions.ForName(u.Node.Raw)
				if vd == nil || u.Type == nil || c.Schema.Type(vd.Type.Name()) == nil {
					continue
				}
				varType := schema.TypeRefFromAST(vd.Type)
				if !allowedVariableUsage(c.Schema, varType, vd.DefaultValue, u.Type, u.HasDefault) {
					r.Report(fmt.Sprintf(`Variable "$%s" of type "%s" used in position expecting type "%s".`, vd.Variable, varType, u.Type), vd.Position, u.Node.Position)
				}
			}
		},
	}
}

// allowedVariableUsage lets a nullable variable reach a non-null position
// only when either side provides a non-null default.
func allowedVariableUsage(s *schema.Schema, varType *schema.TypeRef, varDefault *ast.Value, locType *schema.TypeRef, locDefault bool) bool {
	if locType.IsNonNull() && !varType.IsNonNull() {
		hasNonNullDefault := varDefault != nil && varDefault.Kind != ast.NullValue
		if !hasNonNullDefault && !locDefault {
			return false
		}
		return isTypeSubTypeOf(s, varType, locType.OfType)
	}
	return isTypeSubTypeOf(s, varType, locType)
}

func isTypeSubTypeOf(s *schema.Schema, sub, super *schema.TypeRef) bool {
	if sub.Equal(super) {
		return true
	}
	if super.IsNonNull() {
		return sub.IsNonNull() && isTypeSubTypeOf(s, sub.OfType, super.OfType)
	}
	if sub.IsNonNull() {
		return isTypeSubTypeOf(s, sub.OfType, super)
	}
	if super.Kind == schema.TypeRefKindList {
		return sub.Kind == schema.TypeRefKindList && isTypeSubTypeOf(s, sub.OfType, super.OfType)
	}
	if sub.Kind == schema.TypeRefKindList {
		return false
	}
	superType := s.Type(super.Named)
	return superType.IsAbstract() && s.IsPossibleType(superType, sub.Named)
}
