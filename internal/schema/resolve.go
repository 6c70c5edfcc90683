package schema

import (
	"context"
	"reflect"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/value"
)

// ResolveFn produces a field's value. It may return a plain value or an
// *async.Task; a non-nil error becomes a field error at the field's path.
type ResolveFn func(p ResolveParams) (any, error)

// ResolveParams is everything a resolver may consult for one field.
type ResolveParams struct {
	Context context.Context
	// Source is the parent's resolved value.
	Source any
	// Args holds coerced arguments. Omitted arguments without a default are
	// absent from the map.
	Args map[string]value.Value
	// Request is the caller-supplied request-scoped object, shared by every
	// resolver of one request without synchronization.
	Request any

	FieldName    string
	Fields       []*ast.Field // merged AST nodes sharing the response key
	SelectionSet ast.SelectionSet
	ParentType   *Type
	ReturnType   *TypeRef
	Path         ast.Path
	Schema       *Schema
	Operation    *ast.OperationDefinition
	Variables    map[string]value.Value
}

// Arg returns a coerced argument, Undefined when absent.
func (p ResolveParams) Arg(name string) value.Value { return p.Args[name] }

// ResolveTypeFn returns the name of the concrete object type for an abstract
// value, or "" when it cannot tell.
type ResolveTypeFn func(p ResolveTypeParams) string

type ResolveTypeParams struct {
	Context  context.Context
	Value    any
	Request  any
	Abstract *Type
	Schema   *Schema
}

// SerializeFn coerces a resolved Go value into a leaf result.
type SerializeFn func(v any) (value.Value, error)

// ParseValueFn coerces an input value (literal or variable) into the scalar's
// canonical form.
type ParseValueFn func(v value.Value) (value.Value, error)

// FieldSource lets a parent value resolve its own fields when no resolver is
// bound.
type FieldSource interface {
	ResolveField(p ResolveParams) (any, error)
}

// Typed lets a value name its concrete object type.
type Typed interface {
	GraphQLTypename() string
}

// TypenameFieldName is the meta field available on every composite type.
const TypenameFieldName = "__typename"

var typenameField = &Field{
	Name:        TypenameFieldName,
	Description: "The name of the current Object type at runtime.",
	Type:        NonNullType(NamedType("String")),
}

// DefaultResolve looks the field up on the parent value. It understands
// FieldSource, map[string]any, value objects and structs (exported field
// whose `graphql` tag or name matches, case-insensitively on the first
// letter).
func DefaultResolve(p ResolveParams) (any, error) {
	switch src := p.Source.(type) {
	case nil:
		return nil, nil
	case FieldSource:
		return src.ResolveField(p)
	case map[string]any:
		return src[p.FieldName], nil
	case value.Value:
		v, _ := src.Field(p.FieldName)
		return v, nil
	case *value.Map:
		v, _ := src.Get(p.FieldName)
		return v, nil
	}
	return structField(p.Source, p.FieldName), nil
}

func structField(src any, name string) any {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("graphql"); ok {
			if tag == name {
				return rv.Field(i).Interface()
			}
			continue
		}
		if strings.EqualFold(sf.Name[:1], name[:1]) && sf.Name[1:] == name[1:] {
			return rv.Field(i).Interface()
		}
	}
	return nil
}

// ResolveByTypename resolves abstract types from the value itself: a Typed
// implementation, a "__typename" map entry or object member, or a struct
// whose type name matches a possible type.
func ResolveByTypename(p ResolveTypeParams) string {
	switch v := p.Value.(type) {
	case Typed:
		return v.GraphQLTypename()
	case map[string]any:
		name, _ := v[TypenameFieldName].(string)
		return name
	case value.Value:
		name, _ := v.Field(TypenameFieldName)
		return name.Str()
	}
	rt := reflect.TypeOf(p.Value)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || p.Schema == nil || !p.Schema.IsPossibleType(p.Abstract, rt.Name()) {
		return ""
	}
	return rt.Name()
}
