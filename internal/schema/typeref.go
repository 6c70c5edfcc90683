package schema

import "github.com/vektah/gqlparser/v2/ast"

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

// IsList reports whether the type is a list, possibly behind one Non-Null.
func (t *TypeRef) IsList() bool {
	if t == nil {
		return false
	}
	if t.Kind == TypeRefKindList {
		return true
	}
	return t.Kind == TypeRefKindNonNull && t.OfType != nil && t.OfType.Kind == TypeRefKindList
}

// Unwrap removes one layer of Non-Null or List wrapping.
func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

// Nullable strips a top-level Non-Null.
func (t *TypeRef) Nullable() *TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	default:
		return t.Named
	}
}

// Equal reports structural equality.
func (t *TypeRef) Equal(o *TypeRef) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Named != o.Named {
		return false
	}
	if t.Kind == TypeRefKindNamed {
		return true
	}
	return t.OfType.Equal(o.OfType)
}

// TypeRefFromAST converts a parsed type reference.
func TypeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(TypeRefFromAST(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
