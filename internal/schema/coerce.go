package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hanpama/gqlexec/internal/value"
)

// InputError reports an input value that does not fit its declared type. Path
// locates the offending part inside the value (field names and list
// indices).
type InputError struct {
	Path    []any
	Message string
}

func (e *InputError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("at %q: %s", e.PathString(), e.Message)
}

// PathString renders Path as "field[1].nested".
func (e *InputError) PathString() string {
	var b strings.Builder
	for i, p := range e.Path {
		switch x := p.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(x) + "]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, x)
		}
	}
	return b.String()
}

func inputErrorf(path []any, format string, args ...any) *InputError {
	return &InputError{Path: append([]any(nil), path...), Message: fmt.Sprintf(format, args...)}
}

// CoerceInput coerces an externally supplied value, such as a decoded JSON
// variable, to ref. Enum values may arrive as strings.
func (s *Schema) CoerceInput(ref *TypeRef, v value.Value) (value.Value, error) {
	return s.coerceInput(ref, v, nil)
}

func (s *Schema) coerceInput(ref *TypeRef, v value.Value, path []any) (value.Value, error) {
	if ref.IsNonNull() {
		if v.IsNullish() {
			return value.Value{}, inputErrorf(path, "Expected non-nullable type %q not to be null.", ref.String())
		}
		return s.coerceInput(ref.OfType, v, path)
	}
	if v.IsNullish() {
		return value.NewNull(), nil
	}
	if ref.Kind == TypeRefKindList {
		if v.Kind() != value.List {
			item, err := s.coerceInput(ref.OfType, v, path)
			if err != nil {
				return value.Value{}, err
			}
			return value.NewList(item), nil
		}
		items := make([]value.Value, len(v.Items()))
		for i, item := range v.Items() {
			c, err := s.coerceInput(ref.OfType, item, append(path, i))
			if err != nil {
				return value.Value{}, err
			}
			items[i] = c
		}
		return value.NewList(items...), nil
	}

	t := s.Types[ref.Named]
	if t == nil {
		return value.Value{}, inputErrorf(path, "Unknown type %q.", ref.Named)
	}
	switch t.Kind {
	case TypeKindScalar:
		out, err := t.ParseValue(v)
		if err != nil {
			return value.Value{}, inputErrorf(path, "%s", err.Error())
		}
		return out, nil
	case TypeKindEnum:
		if v.Kind() != value.String && v.Kind() != value.Enum {
			return value.Value{}, inputErrorf(path, "Enum %q cannot represent non-string value: %s.", t.Name, v)
		}
		if t.EnumValue(v.Str()) == nil {
			return value.Value{}, inputErrorf(path, "Value %q does not exist in %q enum.", v.Str(), t.Name)
		}
		return value.NewEnum(v.Str()), nil
	case TypeKindInputObject:
		if v.Kind() != value.Object {
			return value.Value{}, inputErrorf(path, "Expected type %q to be an object.", t.Name)
		}
		var unknown error
		v.Map().Range(func(name string, _ value.Value) bool {
			if t.InputField(name) == nil {
				unknown = inputErrorf(path, "Field %q is not defined by type %q.", name, t.Name)
				return false
			}
			return true
		})
		if unknown != nil {
			return value.Value{}, unknown
		}
		out := value.NewMap(len(t.InputFields))
		for _, field := range t.InputFields {
			fv, ok := v.Field(field.Name)
			if !ok || fv.IsUndefined() {
				if field.HasDefault() {
					out.Set(field.Name, field.DefaultValue)
				} else if field.Type.IsNonNull() {
					return value.Value{}, inputErrorf(path, "Field %q of required type %q was not provided.", field.Name, field.Type.String())
				}
				continue
			}
			c, err := s.coerceInput(field.Type, fv, append(path, field.Name))
			if err != nil {
				return value.Value{}, err
			}
			out.Set(field.Name, c)
		}
		return value.NewObject(out), nil
	}
	return value.Value{}, inputErrorf(path, "Type %q is not an input type.", t.Name)
}

// CoerceLiteral coerces a document literal to ref, substituting variables
// from vars. A variable missing from vars yields Undefined so the caller can
// apply its own default.
func (s *Schema) CoerceLiteral(ref *TypeRef, lit *ast.Value, vars map[string]value.Value) (value.Value, error) {
	return s.coerceLiteral(ref, lit, vars, nil)
}

func (s *Schema) coerceLiteral(ref *TypeRef, lit *ast.Value, vars map[string]value.Value, path []any) (value.Value, error) {
	if lit == nil {
		return value.Value{}, nil
	}
	if lit.Kind == ast.Variable {
		v, ok := vars[lit.Raw]
		if !ok || v.IsUndefined() {
			return value.Value{}, nil
		}
		if ref.IsNonNull() && v.IsNull() {
			return value.Value{}, inputErrorf(path, "Expected non-nullable type %q not to be null.", ref.String())
		}
		return v, nil
	}
	if ref.IsNonNull() {
		if lit.Kind == ast.NullValue {
			return value.Value{}, inputErrorf(path, "Expected non-nullable type %q not to be null.", ref.String())
		}
		return s.coerceLiteral(ref.OfType, lit, vars, path)
	}
	if lit.Kind == ast.NullValue {
		return value.NewNull(), nil
	}
	if ref.Kind == TypeRefKindList {
		if lit.Kind != ast.ListValue {
			item, err := s.coerceLiteral(ref.OfType, lit, vars, path)
			if err != nil || item.IsUndefined() {
				return item, err
			}
			return value.NewList(item), nil
		}
		items := make([]value.Value, len(lit.Children))
		for i, child := range lit.Children {
			item, err := s.coerceLiteral(ref.OfType, child.Value, vars, append(path, i))
			if err != nil {
				return value.Value{}, err
			}
			if item.IsUndefined() {
				if ref.OfType.IsNonNull() {
					return value.Value{}, inputErrorf(append(path, i), "Expected non-nullable type %q not to be null.", ref.OfType.String())
				}
				item = value.NewNull()
			}
			items[i] = item
		}
		return value.NewList(items...), nil
	}

	t := s.Types[ref.Named]
	if t == nil {
		return value.Value{}, inputErrorf(path, "Unknown type %q.", ref.Named)
	}
	switch t.Kind {
	case TypeKindScalar:
		out, err := t.ParseValue(LiteralValue(lit, vars))
		if err != nil {
			return value.Value{}, inputErrorf(path, "%s", err.Error())
		}
		return out, nil
	case TypeKindEnum:
		if lit.Kind != ast.EnumValue {
			return value.Value{}, inputErrorf(path, "Enum %q cannot represent non-enum value: %s.", t.Name, lit.String())
		}
		if t.EnumValue(lit.Raw) == nil {
			return value.Value{}, inputErrorf(path, "Value %q does not exist in %q enum.", lit.Raw, t.Name)
		}
		return value.NewEnum(lit.Raw), nil
	case TypeKindInputObject:
		if lit.Kind != ast.ObjectValue {
			return value.Value{}, inputErrorf(path, "Expected type %q to be an object.", t.Name)
		}
		for _, child := range lit.Children {
			if t.InputField(child.Name) == nil {
				return value.Value{}, inputErrorf(path, "Field %q is not defined by type %q.", child.Name, t.Name)
			}
		}
		out := value.NewMap(len(t.InputFields))
		for _, field := range t.InputFields {
			var fv value.Value
			if child := lit.Children.ForName(field.Name); child != nil {
				var err error
				if fv, err = s.coerceLiteral(field.Type, child, vars, append(path, field.Name)); err != nil {
					return value.Value{}, err
				}
			}
			if fv.IsUndefined() {
				if field.HasDefault() {
					out.Set(field.Name, field.DefaultValue)
				} else if field.Type.IsNonNull() {
					return value.Value{}, inputErrorf(path, "Field %q of required type %q was not provided.", field.Name, field.Type.String())
				}
				continue
			}
			out.Set(field.Name, fv)
		}
		return value.NewObject(out), nil
	}
	return value.Value{}, inputErrorf(path, "Type %q is not an input type.", t.Name)
}

// LiteralValue converts a literal without consulting any type. Integers that
// overflow int64 become floats.
func LiteralValue(lit *ast.Value, vars map[string]value.Value) value.Value {
	if lit == nil {
		return value.Value{}
	}
	switch lit.Kind {
	case ast.Variable:
		return vars[lit.Raw]
	case ast.IntValue:
		if i, err := strconv.ParseInt(lit.Raw, 10, 64); err == nil {
			return value.NewInt(i)
		}
		f, _ := strconv.ParseFloat(lit.Raw, 64)
		return value.NewFloat(f)
	case ast.FloatValue:
		f, _ := strconv.ParseFloat(lit.Raw, 64)
		return value.NewFloat(f)
	case ast.StringValue, ast.BlockValue:
		return value.NewString(lit.Raw)
	case ast.BooleanValue:
		return value.NewBoolean(lit.Raw == "true")
	case ast.NullValue:
		return value.NewNull()
	case ast.EnumValue:
		return value.NewEnum(lit.Raw)
	case ast.ListValue:
		items := make([]value.Value, len(lit.Children))
		for i, child := range lit.Children {
			items[i] = LiteralValue(child.Value, vars)
		}
		return value.NewList(items...)
	case ast.ObjectValue:
		m := value.NewMap(len(lit.Children))
		for _, child := range lit.Children {
			m.Set(child.Name, LiteralValue(child.Value, vars))
		}
		return value.NewObject(m)
	}
	return value.Value{}
}
