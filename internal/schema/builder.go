package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Config declares a schema. Types are listed in the order they should appear
// in possible-type lists; builtin scalars and directives are added by New
// unless Types already defines one of the same name.
type Config struct {
	Query        string
	Mutation     string
	Subscription string
	Types        []*Type
	Directives   []*Directive
	Description  string
}

// New builds an immutable Schema from cfg. It is a pure function: cfg is
// copied and never modified, so the caller may reuse it. Every structural
// problem is reported, joined into one error.
func New(cfg Config) (*Schema, error) {
	b := &builder{
		s: &Schema{
			QueryType:        cfg.Query,
			MutationType:     cfg.Mutation,
			SubscriptionType: cfg.Subscription,
			Types:            make(map[string]*Type, len(cfg.Types)+5),
			Directives:       make(map[string]*Directive, len(cfg.Directives)+3),
			Description:      cfg.Description,
			implementer:      make(map[string][]string),
		},
	}
	if b.s.QueryType == "" {
		b.s.QueryType = "Query"
	}
	for _, t := range cfg.Types {
		b.addType(t)
	}
	for _, t := range builtinTypes() {
		if _, ok := b.s.Types[t.Name]; !ok {
			b.addType(t)
		}
	}
	for _, d := range builtinDirectives() {
		b.addDirective(d)
	}
	for _, d := range cfg.Directives {
		if IsBuiltinDirective(d.Name) {
			if _, ok := b.s.Directives[d.Name]; ok {
				continue
			}
		}
		b.addDirective(d)
	}
	b.checkRoots()
	for _, name := range b.s.typeOrder {
		b.checkType(b.s.Types[name])
	}
	for _, d := range b.s.Directives {
		for _, arg := range d.Arguments {
			b.checkInputValue("@"+d.Name+"("+arg.Name+":)", arg)
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("schema: %w", errors.Join(b.errs...))
	}
	return b.s, nil
}

type builder struct {
	s    *Schema
	errs []error
}

func (b *builder) errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

func (b *builder) addType(src *Type) {
	if src == nil {
		b.errorf("nil type")
		return
	}
	if src.Name == "" {
		b.errorf("type without a name")
		return
	}
	if strings.HasPrefix(src.Name, "__") {
		b.errorf("type name %q must not begin with \"__\"", src.Name)
		return
	}
	if _, dup := b.s.Types[src.Name]; dup {
		b.errorf("type %q is defined more than once", src.Name)
		return
	}

	t := *src
	t.Fields = make([]*Field, len(src.Fields))
	t.fieldIndex = make(map[string]*Field, len(src.Fields))
	for i, f := range src.Fields {
		cp := *f
		cp.Arguments = cloneInputValues(f.Arguments)
		t.Fields[i] = &cp
		if _, dup := t.fieldIndex[cp.Name]; dup {
			b.errorf("field %s.%s is defined more than once", t.Name, cp.Name)
		}
		t.fieldIndex[cp.Name] = &cp
	}
	t.InputFields = cloneInputValues(src.InputFields)
	t.inputIndex = make(map[string]*InputValue, len(t.InputFields))
	for _, f := range t.InputFields {
		if _, dup := t.inputIndex[f.Name]; dup {
			b.errorf("input field %s.%s is defined more than once", t.Name, f.Name)
		}
		t.inputIndex[f.Name] = f
	}
	t.EnumValues = make([]*EnumValue, len(src.EnumValues))
	t.enumIndex = make(map[string]*EnumValue, len(src.EnumValues))
	for i, v := range src.EnumValues {
		cp := *v
		t.EnumValues[i] = &cp
		if _, dup := t.enumIndex[cp.Name]; dup {
			b.errorf("enum value %s.%s is defined more than once", t.Name, cp.Name)
		}
		t.enumIndex[cp.Name] = &cp
	}
	t.Interfaces = append([]string(nil), src.Interfaces...)
	t.PossibleTypes = append([]string(nil), src.PossibleTypes...)
	if t.Kind == TypeKindScalar {
		if t.Serialize == nil {
			t.Serialize = serializeAny
		}
		if t.ParseValue == nil {
			t.ParseValue = parseAny
		}
	}

	b.s.Types[t.Name] = &t
	b.s.typeOrder = append(b.s.typeOrder, t.Name)
	if t.Kind == TypeKindObject {
		for _, iface := range t.Interfaces {
			b.s.implementer[iface] = append(b.s.implementer[iface], t.Name)
		}
	}
}

func cloneInputValues(in []*InputValue) []*InputValue {
	if in == nil {
		return nil
	}
	out := make([]*InputValue, len(in))
	for i, v := range in {
		cp := *v
		out[i] = &cp
	}
	return out
}

func (b *builder) addDirective(src *Directive) {
	if _, dup := b.s.Directives[src.Name]; dup {
		b.errorf("directive @%s is defined more than once", src.Name)
		return
	}
	d := *src
	d.Locations = append([]string(nil), src.Locations...)
	d.Arguments = cloneInputValues(src.Arguments)
	b.s.Directives[d.Name] = &d
}

func (b *builder) checkRoots() {
	roots := []struct{ op, name string }{
		{"query", b.s.QueryType},
		{"mutation", b.s.MutationType},
		{"subscription", b.s.SubscriptionType},
	}
	for _, r := range roots {
		if r.name == "" {
			continue
		}
		t, ok := b.s.Types[r.name]
		if !ok {
			b.errorf("%s root type %q is not defined", r.op, r.name)
		} else if t.Kind != TypeKindObject {
			b.errorf("%s root type %q must be an object type", r.op, r.name)
		}
	}
}

func (b *builder) checkType(t *Type) {
	switch t.Kind {
	case TypeKindObject, TypeKindInterface:
		if len(t.Fields) == 0 {
			b.errorf("type %s must define one or more fields", t.Name)
		}
		for _, f := range t.Fields {
			where := t.Name + "." + f.Name
			if strings.HasPrefix(f.Name, "__") {
				b.errorf("field %s must not begin with \"__\"", where)
			}
			if out := b.checkRef(where, f.Type); out != nil && !out.IsOutputType() {
				b.errorf("field %s must have an output type, got %s", where, f.Type)
			}
			for _, arg := range f.Arguments {
				b.checkInputValue(where+"("+arg.Name+":)", arg)
			}
		}
		for _, name := range t.Interfaces {
			iface := b.s.Types[name]
			if iface == nil || iface.Kind != TypeKindInterface {
				b.errorf("type %s implements %q which is not an interface", t.Name, name)
				continue
			}
			for _, want := range iface.Fields {
				got := t.Field(want.Name)
				if got == nil {
					b.errorf("interface field %s.%s expected but %s does not provide it", name, want.Name, t.Name)
				} else if !b.isSubType(got.Type, want.Type) {
					b.errorf("interface field %s.%s expects type %s but %s.%s is type %s", name, want.Name, want.Type, t.Name, got.Name, got.Type)
				}
			}
		}
		if t.Kind == TypeKindInterface && t.ResolveType == nil {
			b.errorf("interface %s has no ResolveType", t.Name)
		}
	case TypeKindUnion:
		if len(t.PossibleTypes) == 0 {
			b.errorf("union %s must define one or more member types", t.Name)
		}
		for _, name := range t.PossibleTypes {
			if m := b.s.Types[name]; m == nil || m.Kind != TypeKindObject {
				b.errorf("union %s can only include object types, it cannot include %q", t.Name, name)
			}
		}
		if t.ResolveType == nil {
			b.errorf("union %s has no ResolveType", t.Name)
		}
	case TypeKindEnum:
		if len(t.EnumValues) == 0 {
			b.errorf("enum %s must define one or more values", t.Name)
		}
	case TypeKindInputObject:
		if len(t.InputFields) == 0 {
			b.errorf("input object %s must define one or more fields", t.Name)
		}
		for _, f := range t.InputFields {
			b.checkInputValue(t.Name+"."+f.Name, f)
		}
	case TypeKindScalar:
	default:
		b.errorf("type %s has unknown kind %q", t.Name, t.Kind)
	}
}

func (b *builder) checkRef(where string, ref *TypeRef) *Type {
	if ref == nil {
		b.errorf("%s has no type", where)
		return nil
	}
	t := b.s.Types[ref.GetNamedType()]
	if t == nil {
		b.errorf("%s refers to unknown type %q", where, ref.GetNamedType())
	}
	return t
}

func (b *builder) checkInputValue(where string, v *InputValue) {
	t := b.checkRef(where, v.Type)
	if t == nil {
		return
	}
	if !t.IsInputType() {
		b.errorf("%s must have an input type, got %s", where, v.Type)
		return
	}
	if v.HasDefault() {
		coerced, err := b.s.CoerceInput(v.Type, v.DefaultValue)
		if err != nil {
			b.errorf("%s has an invalid default value: %w", where, err)
			return
		}
		v.DefaultValue = coerced
	}
}

// isSubType reports whether a field of type got satisfies an interface field
// of type want (covariant result types).
func (b *builder) isSubType(got, want *TypeRef) bool {
	if got == nil || want == nil {
		return false
	}
	if want.IsNonNull() {
		return got.IsNonNull() && b.isSubType(got.OfType, want.OfType)
	}
	if got.IsNonNull() {
		return b.isSubType(got.OfType, want)
	}
	if want.Kind == TypeRefKindList {
		return got.Kind == TypeRefKindList && b.isSubType(got.OfType, want.OfType)
	}
	if got.Kind == TypeRefKindList {
		return false
	}
	if got.Named == want.Named {
		return true
	}
	wt := b.s.Types[want.Named]
	return wt.IsAbstract() && b.s.IsPossibleType(wt, got.Named)
}
