package validator

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/schema"
)

func overlappingFieldsCanBeMerged(c *Context, r *Reporter) *Visitor {
	o := newOverlap(c)
	return &Visitor{
		EnterSelectionSet: func(set ast.SelectionSet) {
			for _, cf := range o.conflictsWithin(c.ParentType(), set) {
				var at []*ast.Position
				for _, f := range cf.fields1 {
					at = append(at, f.Position)
				}
				for _, f := range cf.fields2 {
					at = append(at, f.Position)
				}
				r.Report(fmt.Sprintf(`Fields "%s" conflict because %s. Use different aliases on the fields to fetch both if this was intentional.`, cf.key, cf.reason()), at...)
			}
		},
	}
}

type collectedField struct {
	field  *ast.Field
	parent *schema.Type
	def    *schema.Field
}

// responseFields groups fields by response key, keys in first-seen order.
type responseFields struct {
	keys  []string
	byKey map[string][]collectedField
}

func (m *responseFields) add(key string, f collectedField) {
	if _, ok := m.byKey[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.byKey[key] = append(m.byKey[key], f)
}

type conflict struct {
	key     string
	message string
	subs    []conflict
	fields1 []*ast.Field
	fields2 []*ast.Field
}

func (cf conflict) reason() string {
	if len(cf.subs) == 0 {
		return cf.message
	}
	parts := make([]string, len(cf.subs))
	for i, sub := range cf.subs {
		parts[i] = fmt.Sprintf(`subfields "%s" conflict because %s`, sub.key, sub.reason())
	}
	return strings.Join(parts, " and ")
}

type pairKey struct {
	a, b      *ast.Field
	exclusive bool
}

type overlap struct {
	c        *Context
	compared map[pairKey]bool
}

func newOverlap(c *Context) *overlap {
	return &overlap{c: c, compared: make(map[pairKey]bool)}
}

// conflictsWithin reports conflicts among the fields of one selection set.
// Conflicts inside a spread fragment itself are left to the walk of that
// fragment's definition.
func (o *overlap) conflictsWithin(parent *schema.Type, set ast.SelectionSet) []conflict {
	direct := &responseFields{byKey: make(map[string][]collectedField)}
	var spreads []string
	seen := make(map[string]bool)
	o.collect(parent, set, direct, func(name string) {
		if !seen[name] {
			seen[name] = true
			spreads = append(spreads, name)
		}
	})

	out := o.within(direct)
	fragments := make([]*responseFields, 0, len(spreads))
	for _, name := range spreads {
		frag := o.c.Fragment(name)
		if frag == nil {
			continue
		}
		fragments = append(fragments, o.collectAll(o.c.Schema.Type(frag.TypeCondition), frag.SelectionSet))
	}
	for _, fm := range fragments {
		out = append(out, o.between(direct, fm, false)...)
	}
	for i := range fragments {
		for j := i + 1; j < len(fragments); j++ {
			out = append(out, o.between(fragments[i], fragments[j], false)...)
		}
	}
	return out
}

// collectAll gathers fields through inline fragments and spreads.
func (o *overlap) collectAll(parent *schema.Type, set ast.SelectionSet) *responseFields {
	m := &responseFields{byKey: make(map[string][]collectedField)}
	visited := make(map[string]bool)
	var spread func(name string)
	spread = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		frag := o.c.Fragment(name)
		if frag == nil {
			return
		}
		o.collect(o.c.Schema.Type(frag.TypeCondition), frag.SelectionSet, m, spread)
	}
	o.collect(parent, set, m, spread)
	return m
}

func (o *overlap) collect(parent *schema.Type, set ast.SelectionSet, m *responseFields, spread func(name string)) {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			var def *schema.Field
			if parent.IsComposite() {
				def = o.c.Schema.Field(parent, sel.Name)
			}
			m.add(responseKey(sel), collectedField{field: sel, parent: parent, def: def})
		case *ast.InlineFragment:
			typ := parent
			if sel.TypeCondition != "" {
				typ = o.c.Schema.Type(sel.TypeCondition)
			}
			o.collect(typ, sel.SelectionSet, m, spread)
		case *ast.FragmentSpread:
			spread(sel.Name)
		}
	}
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (o *overlap) within(m *responseFields) []conflict {
	var out []conflict
	for _, key := range m.keys {
		fields := m.byKey[key]
		for i := range fields {
			for j := i + 1; j < len(fields); j++ {
				if cf := o.findConflict(key, fields[i], fields[j], false); cf != nil {
					out = append(out, *cf)
				}
			}
		}
	}
	return out
}

func (o *overlap) between(m1, m2 *responseFields, exclusive bool) []conflict {
	var out []conflict
	for _, key := range m1.keys {
		others, ok := m2.byKey[key]
		if !ok {
			continue
		}
		for _, a := range m1.byKey[key] {
			for _, b := range others {
				if cf := o.findConflict(key, a, b, exclusive); cf != nil {
					out = append(out, *cf)
				}
			}
		}
	}
	return out
}

func (o *overlap) findConflict(key string, a, b collectedField, parentsExclusive bool) *conflict {
	if a.field == b.field {
		return nil
	}
	pk := pairKey{a: a.field, b: b.field, exclusive: parentsExclusive}
	if o.compared[pk] {
		return nil
	}
	o.compared[pk] = true
	o.compared[pairKey{a: b.field, b: a.field, exclusive: parentsExclusive}] = true

	exclusive := parentsExclusive ||
		(a.parent != b.parent && a.parent != nil && b.parent != nil &&
			a.parent.Kind == schema.TypeKindObject && b.parent.Kind == schema.TypeKindObject)

	leaf := func(msg string) *conflict {
		return &conflict{key: key, message: msg, fields1: []*ast.Field{a.field}, fields2: []*ast.Field{b.field}}
	}
	if !exclusive {
		if a.field.Name != b.field.Name {
			return leaf(fmt.Sprintf(`"%s" and "%s" are different fields`, a.field.Name, b.field.Name))
		}
		if !sameArguments(a.field.Arguments, b.field.Arguments) {
			return leaf("they have differing arguments")
		}
	}

	var typeA, typeB *schema.TypeRef
	if a.def != nil {
		typeA = a.def.Type
	}
	if b.def != nil {
		typeB = b.def.Type
	}
	if typeA != nil && typeB != nil && o.typesConflict(typeA, typeB) {
		return leaf(fmt.Sprintf(`they return conflicting types "%s" and "%s"`, typeA, typeB))
	}

	if len(a.field.SelectionSet) == 0 || len(b.field.SelectionSet) == 0 {
		return nil
	}
	subA := o.collectAll(o.c.Schema.Named(typeA), a.field.SelectionSet)
	subB := o.collectAll(o.c.Schema.Named(typeB), b.field.SelectionSet)
	subs := o.between(subA, subB, exclusive)
	if len(subs) == 0 {
		return nil
	}
	cf := &conflict{key: key, subs: subs, fields1: []*ast.Field{a.field}, fields2: []*ast.Field{b.field}}
	for _, sub := range subs {
		cf.fields1 = append(cf.fields1, sub.fields1...)
		cf.fields2 = append(cf.fields2, sub.fields2...)
	}
	return cf
}

func (o *overlap) typesConflict(a, b *schema.TypeRef) bool {
	if a.Kind == schema.TypeRefKindList {
		if b.Kind != schema.TypeRefKindList {
			return true
		}
		return o.typesConflict(a.OfType, b.OfType)
	}
	if b.Kind == schema.TypeRefKindList {
		return true
	}
	if a.IsNonNull() {
		if !b.IsNonNull() {
			return true
		}
		return o.typesConflict(a.OfType, b.OfType)
	}
	if b.IsNonNull() {
		return true
	}
	ta, tb := o.c.Schema.Type(a.Named), o.c.Schema.Type(b.Named)
	if ta.IsLeaf() || tb.IsLeaf() {
		return a.Named != b.Named
	}
	return false
}

func sameArguments(a, b ast.ArgumentList) bool {
	if len(a) != len(b) {
		return false
	}
	for _, arg := range a {
		other := b.ForName(arg.Name)
		if other == nil || arg.Value.String() != other.Value.String() {
			return false
		}
	}
	return true
}
