package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/hanpama/gqlexec/internal/value"
)

func builtinTypes() []*Type {
	return []*Type{
		{
			Name:        "String",
			Kind:        TypeKindScalar,
			Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
			Serialize:   serializeString,
			ParseValue:  parseString,
		},
		{
			Name:        "Int",
			Kind:        TypeKindScalar,
			Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
			Serialize:   serializeInt,
			ParseValue:  parseInt,
		},
		{
			Name:        "Float",
			Kind:        TypeKindScalar,
			Description: "The `Float` scalar type represents signed double-precision fractional values.",
			Serialize:   serializeFloat,
			ParseValue:  parseFloat,
		},
		{
			Name:        "Boolean",
			Kind:        TypeKindScalar,
			Description: "The `Boolean` scalar type represents `true` or `false`.",
			Serialize:   serializeBoolean,
			ParseValue:  parseBoolean,
		},
		{
			Name:        "ID",
			Kind:        TypeKindScalar,
			Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
			Serialize:   serializeID,
			ParseValue:  parseID,
		},
	}
}

// IsBuiltinType reports whether name is one of the specified scalars.
func IsBuiltinType(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID":
		return true
	}
	return false
}

// IsBuiltinDirective reports whether name is a directive every schema carries.
func IsBuiltinDirective(name string) bool {
	switch name {
	case "include", "skip", "deprecated":
		return true
	}
	return false
}

func builtinDirectives() []*Directive {
	return []*Directive{
		{
			Name:        "include",
			Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
			Arguments: []*InputValue{
				{
					Name:        "if",
					Description: "Included when true.",
					Type:        NonNullType(NamedType("Boolean")),
				},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "skip",
			Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
			Arguments: []*InputValue{
				{
					Name:        "if",
					Description: "Skipped when true.",
					Type:        NonNullType(NamedType("Boolean")),
				},
			},
			Locations: []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		},
		{
			Name:        "deprecated",
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Arguments: []*InputValue{
				{
					Name:         "reason",
					Description:  "Explains why this element was deprecated.",
					Type:         NamedType("String"),
					DefaultValue: value.NewString(DefaultDeprecationReason),
				},
			},
			Locations: []string{"FIELD_DEFINITION", "ARGUMENT_DEFINITION", "INPUT_FIELD_DEFINITION", "ENUM_VALUE"},
		},
	}
}

const DefaultDeprecationReason = "No longer supported"

// ----- output coercion -----

func serializeString(v any) (value.Value, error) {
	switch x := v.(type) {
	case string:
		return value.NewString(x), nil
	case bool:
		return value.NewString(strconv.FormatBool(x)), nil
	case value.Value:
		switch x.Kind() {
		case value.String, value.Enum:
			return value.NewString(x.Str()), nil
		case value.Boolean:
			return value.NewString(strconv.FormatBool(x.Bool())), nil
		}
	case fmt.Stringer:
		return value.NewString(x.String()), nil
	}
	if i, ok := toInt64(v); ok {
		return value.NewString(strconv.FormatInt(i, 10)), nil
	}
	if f, ok := toFloat64(v); ok {
		return value.NewString(strconv.FormatFloat(f, 'g', -1, 64)), nil
	}
	return value.Value{}, fmt.Errorf("String cannot represent value: %s", inspect(v))
}

func serializeInt(v any) (value.Value, error) {
	if b, ok := v.(bool); ok {
		if b {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
		}
		v = n
	}
	i, ok := toInt64(v)
	if !ok {
		f, isFloat := toFloat64(v)
		if !isFloat || f != math.Trunc(f) || math.IsInf(f, 0) {
			return value.Value{}, fmt.Errorf("Int cannot represent non-integer value: %s", inspect(v))
		}
		if f > math.MaxInt32 || f < math.MinInt32 {
			return value.Value{}, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", inspect(v))
		}
		i = int64(f)
	}
	if i > math.MaxInt32 || i < math.MinInt32 {
		return value.Value{}, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", inspect(v))
	}
	return value.NewInt(i), nil
}

func serializeFloat(v any) (value.Value, error) {
	if b, ok := v.(bool); ok {
		if b {
			return value.NewFloat(1), nil
		}
		return value.NewFloat(0), nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
		}
		v = f
	}
	if f, ok := toFloat64(v); ok && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return value.NewFloat(f), nil
	}
	return value.Value{}, fmt.Errorf("Float cannot represent non numeric value: %s", inspect(v))
}

func serializeBoolean(v any) (value.Value, error) {
	switch x := v.(type) {
	case bool:
		return value.NewBoolean(x), nil
	case value.Value:
		if x.Kind() == value.Boolean {
			return x, nil
		}
	}
	if f, ok := toFloat64(v); ok {
		return value.NewBoolean(f != 0), nil
	}
	return value.Value{}, fmt.Errorf("Boolean cannot represent a non boolean value: %s", inspect(v))
}

func serializeID(v any) (value.Value, error) {
	switch x := v.(type) {
	case string:
		return value.NewString(x), nil
	case value.Value:
		if x.Kind() == value.String {
			return x, nil
		}
	case fmt.Stringer:
		return value.NewString(x.String()), nil
	}
	if i, ok := toInt64(v); ok {
		return value.NewString(strconv.FormatInt(i, 10)), nil
	}
	return value.Value{}, fmt.Errorf("ID cannot represent value: %s", inspect(v))
}

// ----- input coercion -----

func parseString(v value.Value) (value.Value, error) {
	if v.Kind() != value.String {
		return value.Value{}, fmt.Errorf("String cannot represent a non string value: %s", v)
	}
	return v, nil
}

func parseInt(v value.Value) (value.Value, error) {
	if v.Kind() != value.Int {
		return value.Value{}, fmt.Errorf("Int cannot represent non-integer value: %s", v)
	}
	if v.Int() > math.MaxInt32 || v.Int() < math.MinInt32 {
		return value.Value{}, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %s", v)
	}
	return v, nil
}

func parseFloat(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.Int, value.Float:
		return value.NewFloat(v.Float()), nil
	}
	return value.Value{}, fmt.Errorf("Float cannot represent non numeric value: %s", v)
}

func parseBoolean(v value.Value) (value.Value, error) {
	if v.Kind() != value.Boolean {
		return value.Value{}, fmt.Errorf("Boolean cannot represent a non boolean value: %s", v)
	}
	return v, nil
}

func parseID(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.String:
		return v, nil
	case value.Int:
		return value.NewString(strconv.FormatInt(v.Int(), 10)), nil
	}
	return value.Value{}, fmt.Errorf("ID cannot represent value: %s", v)
}

// SerializeLeaf coerces a resolved value into the output form of a scalar or
// enum type.
func (t *Type) SerializeLeaf(v any) (value.Value, error) {
	switch t.Kind {
	case TypeKindScalar:
		if t.Serialize == nil {
			return serializeAny(v)
		}
		return t.Serialize(v)
	case TypeKindEnum:
		return t.serializeEnum(v)
	}
	return value.Value{}, fmt.Errorf("%s is not a leaf type", t.Name)
}

// serializeEnum matches v against each value's internal representation
// first, then against the value names.
func (t *Type) serializeEnum(v any) (value.Value, error) {
	if v != nil && reflect.TypeOf(v).Comparable() {
		for _, ev := range t.EnumValues {
			if ev.Value != nil && reflect.TypeOf(ev.Value) == reflect.TypeOf(v) && ev.Value == v {
				return value.NewEnum(ev.Name), nil
			}
		}
	}
	var name string
	switch x := v.(type) {
	case string:
		name = x
	case value.Value:
		if x.Kind() == value.String || x.Kind() == value.Enum {
			name = x.Str()
		}
	case fmt.Stringer:
		name = x.String()
	}
	if name != "" && t.EnumValue(name) != nil {
		return value.NewEnum(name), nil
	}
	return value.Value{}, fmt.Errorf("Enum %q cannot represent value: %s", t.Name, inspect(v))
}

// passthrough is used by custom scalars that bring no coercion of their own.
func serializeAny(v any) (value.Value, error) { return value.FromGo(v) }

func parseAny(v value.Value) (value.Value, error) { return v, nil }

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case value.Value:
		if x.Kind() == value.Int {
			return x.Int(), true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case value.Value:
		if x.Kind() == value.Int || x.Kind() == value.Float {
			return x.Float(), true
		}
		return 0, false
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func inspect(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case value.Value:
		return x.String()
	case nil:
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
