package schema

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/value"
)

// Schema is the immutable type graph. Build one with New or BuildFromSDL.
// Nothing in a Schema is written after construction, so a single instance is
// shared by every concurrent request.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	typeOrder   []string
	implementer map[string][]string // interface name -> object names in declaration order
}

// GetQueryType returns the root query type.
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (nil if absent)
func (s *Schema) GetMutationType() *Type { return s.lookupRoot(s.MutationType) }

// GetSubscriptionType returns the root subscription type (nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.lookupRoot(s.SubscriptionType) }

func (s *Schema) lookupRoot(name string) *Type {
	if name == "" {
		return nil
	}
	return s.Types[name]
}

// RootType returns the root object type for an operation kind.
func (s *Schema) RootType(op ast.Operation) *Type {
	switch op {
	case ast.Mutation:
		return s.GetMutationType()
	case ast.Subscription:
		return s.GetSubscriptionType()
	default:
		return s.GetQueryType()
	}
}

// Type returns the named type or nil.
func (s *Schema) Type(name string) *Type { return s.Types[name] }

// TypeNames lists every type in declaration order, builtins last.
func (s *Schema) TypeNames() []string { return append([]string(nil), s.typeOrder...) }

// Named resolves the innermost named type of ref.
func (s *Schema) Named(ref *TypeRef) *Type {
	if ref == nil {
		return nil
	}
	return s.Types[ref.GetNamedType()]
}

// Field looks up a field on a composite type. The __typename meta field is
// available on every object, interface and union.
func (s *Schema) Field(t *Type, name string) *Field {
	if t == nil {
		return nil
	}
	if name == TypenameFieldName && t.IsComposite() {
		return typenameField
	}
	return t.Field(name)
}

// PossibleTypes returns the concrete object types of an abstract type in
// declaration order. An object type is its own single possible type.
func (s *Schema) PossibleTypes(t *Type) []*Type {
	if t == nil {
		return nil
	}
	var names []string
	switch t.Kind {
	case TypeKindObject:
		return []*Type{t}
	case TypeKindInterface:
		names = s.implementer[t.Name]
	case TypeKindUnion:
		names = t.PossibleTypes
	}
	out := make([]*Type, 0, len(names))
	for _, name := range names {
		out = append(out, s.Types[name])
	}
	return out
}

// IsPossibleType reports whether the object type named objectName can be the
// runtime type of a value of type t.
func (s *Schema) IsPossibleType(t *Type, objectName string) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeKindObject:
		return t.Name == objectName
	case TypeKindInterface:
		for _, name := range s.implementer[t.Name] {
			if name == objectName {
				return true
			}
		}
	case TypeKindUnion:
		for _, name := range t.PossibleTypes {
			if name == objectName {
				return true
			}
		}
	}
	return false
}

// Overlaps reports whether two composite types share at least one possible
// object type.
func (s *Schema) Overlaps(a, b *Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	for _, t := range s.PossibleTypes(a) {
		if s.IsPossibleType(b, t.Name) {
			return true
		}
	}
	return false
}

// ResolveAbstract asks the abstract type's resolver for the concrete type of
// v. It returns "" when unresolved.
func (s *Schema) ResolveAbstract(p ResolveTypeParams) string {
	if p.Abstract == nil || p.Abstract.ResolveType == nil {
		return ""
	}
	p.Schema = s
	return p.Abstract.ResolveType(p)
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string

	// ResolveType picks the concrete object type for INTERFACE and UNION.
	ResolveType ResolveTypeFn

	// Serialize and ParseValue coerce SCALAR output and input.
	Serialize  SerializeFn
	ParseValue ParseValueFn

	fieldIndex map[string]*Field
	inputIndex map[string]*InputValue
	enumIndex  map[string]*EnumValue
}

func (t *Type) Field(name string) *Field {
	if t.fieldIndex != nil {
		return t.fieldIndex[name]
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Type) InputField(name string) *InputValue {
	if t.inputIndex != nil {
		return t.inputIndex[name]
	}
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (t *Type) EnumValue(name string) *EnumValue {
	if t.enumIndex != nil {
		return t.enumIndex[name]
	}
	for _, v := range t.EnumValues {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (t *Type) IsComposite() bool {
	return t != nil && (t.Kind == TypeKindObject || t.Kind == TypeKindInterface || t.Kind == TypeKindUnion)
}

func (t *Type) IsAbstract() bool {
	return t != nil && (t.Kind == TypeKindInterface || t.Kind == TypeKindUnion)
}

func (t *Type) IsLeaf() bool {
	return t != nil && (t.Kind == TypeKindScalar || t.Kind == TypeKindEnum)
}

func (t *Type) IsInputType() bool {
	return t != nil && (t.Kind == TypeKindScalar || t.Kind == TypeKindEnum || t.Kind == TypeKindInputObject)
}

func (t *Type) IsOutputType() bool {
	return t != nil && t.Kind != TypeKindInputObject
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Resolve           ResolveFn // nil selects DefaultResolve
	IsDeprecated      bool
	DeprecationReason string
}

func (f *Field) Argument(name string) *InputValue {
	return findInputValue(f.Arguments, name)
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

type EnumValue struct {
	Name        string
	Description string
	// Value is the internal representation a resolver may return in place
	// of the name. Nil means only the name is accepted.
	Value             any
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      value.Value // Undefined when there is no default
	IsDeprecated      bool
	DeprecationReason string
}

// HasDefault reports whether a default value was declared.
func (v *InputValue) HasDefault() bool { return !v.DefaultValue.IsUndefined() }

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func (d *Directive) Argument(name string) *InputValue {
	return findInputValue(d.Arguments, name)
}

// HasLocation reports whether the directive may appear at loc.
func (d *Directive) HasLocation(loc string) bool {
	for _, l := range d.Locations {
		if l == loc {
			return true
		}
	}
	return false
}

func findInputValue(values []*InputValue, name string) *InputValue {
	for _, v := range values {
		if v.Name == name {
			return v
		}
	}
	return nil
}
