package validator

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

func uniqueOperationNames(c *Context, r *Reporter) *Visitor {
	seen := make(map[string]*ast.OperationDefinition)
	return &Visitor{
		EnterOperation: func(op *ast.OperationDefinition) {
			if op.Name == "" {
				return
			}
			if prev, ok := seen[op.Name]; ok {
				r.Report(fmt.Sprintf(`There can be only one operation named "%s".`, op.Name), prev.Position, op.Position)
				return
			}
			seen[op.Name] = op
		},
	}
}

func loneAnonymousOperation(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterOperation: func(op *ast.OperationDefinition) {
			if op.Name == "" && len(c.Doc.Operations) > 1 {
				r.Report("This anonymous operation must be the only defined operation.", op.Position)
			}
		},
	}
}

func knownOperationTypes(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterOperation: func(op *ast.OperationDefinition) {
			if c.Schema.RootType(op.Operation) == nil {
				r.Reportf(op.Position, "Schema is not configured to execute %s operation.", op.Operation)
			}
		},
	}
}

func singleFieldSubscriptions(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterOperation: func(op *ast.OperationDefinition) {
			if op.Operation != ast.Subscription {
				return
			}
			o := newOverlap(c)
			fields := o.collectAll(c.Schema.RootType(op.Operation), op.SelectionSet)
			if len(fields.keys) <= 1 {
				return
			}
			var extra []*ast.Position
			for _, key := range fields.keys[1:] {
				extra = append(extra, fields.byKey[key][0].field.Position)
			}
			if op.Name != "" {
				r.Report(fmt.Sprintf(`Subscription "%s" must select only one top level field.`, op.Name), extra...)
			} else {
				r.Report("Anonymous Subscription must select only one top level field.", extra...)
			}
		},
	}
}

func uniqueFragmentNames(c *Context, r *Reporter) *Visitor {
	seen := make(map[string]*ast.FragmentDefinition)
	return &Visitor{
		EnterFragment: func(frag *ast.FragmentDefinition) {
			if prev, ok := seen[frag.Name]; ok {
				r.Report(fmt.Sprintf(`There can be only one fragment named "%s".`, frag.Name), prev.Position, frag.Position)
				return
			}
			seen[frag.Name] = frag
		},
	}
}

func knownFragmentNames(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterFragmentSpread: func(s *ast.FragmentSpread) {
			if c.Fragment(s.Name) == nil {
				r.Reportf(s.Position, `Unknown fragment "%s".`, s.Name)
			}
		},
	}
}

func noUnusedFragments(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		LeaveDocument: func() {
			used := make(map[string]bool)
			for _, op := range c.Doc.Operations {
				for _, frag := range c.RecursivelyReferencedFragments(op) {
					used[frag.Name] = true
				}
			}
			for _, frag := range c.Doc.Fragments {
				if !used[frag.Name] {
					r.Reportf(frag.Position, `Fragment "%s" is never used.`, frag.Name)
				}
			}
		},
	}
}

func noFragmentCycles(c *Context, r *Reporter) *Visitor {
	visited := make(map[string]bool)
	pathIndex := make(map[string]int)
	var path []*ast.FragmentSpread

	var detect func(frag *ast.FragmentDefinition)
	detect = func(frag *ast.FragmentDefinition) {
		if visited[frag.Name] {
			return
		}
		visited[frag.Name] = true
		spreads := c.FragmentSpreads(frag)
		if len(spreads) == 0 {
			return
		}
		pathIndex[frag.Name] = len(path)
		for _, s := range spreads {
			start, onPath := pathIndex[s.Name]
			path = append(path, s)
			if !onPath {
				if next := c.Fragment(s.Name); next != nil {
					detect(next)
				}
			} else {
				cycle := path[start:]
				var via []string
				var at []*ast.Position
				for i, step := range cycle {
					if i < len(cycle)-1 {
						via = append(via, `"`+step.Name+`"`)
					}
					at = append(at, step.Position)
				}
				msg := fmt.Sprintf(`Cannot spread fragment "%s" within itself`, s.Name)
				if len(via) > 0 {
					msg += " via " + strings.Join(via, ", ")
				}
				r.Report(msg+".", at...)
			}
			path = path[:len(path)-1]
		}
		delete(pathIndex, frag.Name)
	}

	return &Visitor{
		EnterFragment: detect,
	}
}

func knownTypeNames(c *Context, r *Reporter) *Visitor {
	check := func(name string, pos *ast.Position) {
		if name != "" && c.Schema.Type(name) == nil {
			r.Reportf(pos, `Unknown type "%s".`, name)
		}
	}
	return &Visitor{
		EnterFragment: func(frag *ast.FragmentDefinition) {
			check(frag.TypeCondition, frag.Position)
		},
		EnterInlineFragment: func(f *ast.InlineFragment) {
			check(f.TypeCondition, f.Position)
		},
		EnterVariableDefinition: func(v *ast.VariableDefinition) {
			check(v.Type.Name(), v.Type.Position)
		},
	}
}

func fragmentsOnCompositeTypes(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterInlineFragment: func(f *ast.InlineFragment) {
			if t := c.Schema.Type(f.TypeCondition); t != nil && !t.IsComposite() {
				r.Reportf(f.Position, `Fragment cannot condition on non composite type "%s".`, t.Name)
			}
		},
		EnterFragment: func(frag *ast.FragmentDefinition) {
			if t := c.Schema.Type(frag.TypeCondition); t != nil && !t.IsComposite() {
				r.Reportf(frag.Position, `Fragment "%s" cannot condition on non composite type "%s".`, frag.Name, t.Name)
			}
		},
	}
}

func possibleFragmentSpreads(c *Context, r *Reporter) *Visitor {
	return &Visitor{
		EnterInlineFragment: func(f *ast.InlineFragment) {
			fragType := c.Schema.Type(f.TypeCondition)
			parent := c.ParentType()
			if !fragType.IsComposite() || parent == nil {
				return
			}
			if !c.Schema.Overlaps(fragType, parent) {
				r.Reportf(f.Position, `Fragment cannot be spread here as objects of type "%s" can never be of type "%s".`, parent.Name, fragType.Name)
			}
		},
		EnterFragmentSpread: func(s *ast.FragmentSpread) {
			frag := c.Fragment(s.Name)
			if frag == nil {
				return
			}
			fragType := c.Schema.Type(frag.TypeCondition)
			parent := c.ParentType()
			if !fragType.IsComposite() || parent == nil {
				return
			}
			if !c.Schema.Overlaps(fragType, parent) {
				r.Reportf(s.Position, `Fragment "%s" cannot be spread here as objects of type "%s" can never be of type "%s".`, s.Name, parent.Name, fragType.Name)
			}
		},
	}
}
