// Package value holds the tagged variant used for coerced arguments, coerced
// variables and the response tree. A Value is immutable once built.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates a Value.
type Kind uint8

const (
	// Undefined is the zero Value. It stands for "absent", which is distinct
	// from an explicit null.
	Undefined Kind = iota
	Null
	Boolean
	Int
	Float
	String
	Enum
	List
	Object
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "Undefined"
	case Null:
		return "Null"
	case Boolean:
		return "Boolean"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Enum:
		return "Enum"
	case List:
		return "List"
	case Object:
		return "Object"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	obj  *Map
}

func NewNull() Value { return Value{kind: Null} }
func NewBoolean(b bool) Value { return Value{kind: Boolean, b: b} }
func NewInt(i int64) Value { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewString(s string) Value { return Value{kind: String, s: s} }
func NewEnum(name string) Value { return Value{kind: Enum, s: name} }
func NewList(items ...Value) Value { return Value{kind: List, list: items} }

// NewObject wraps an ordered map. A nil map yields an empty object.
func NewObject(m *Map) Value {
	if m == nil {
		m = NewMap(0)
	}
	return Value{kind: Object, obj: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsUndefined() bool { return v.kind == Undefined }
func (v Value) IsNull() bool { return v.kind == Null }
func (v Value) IsNullish() bool { return v.kind == Null || v.kind == Undefined }
func (v Value) Bool() bool { return v.b }
func (v Value) Int() int64 { return v.i }
func (v Value) Str() string { return v.s }
func (v Value) Items() []Value { return v.list }
func (v Value) Map() *Map { return v.obj }

// Float returns the numeric payload of an Int or Float value.
func (v Value) Float() float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

// Field returns the named member of an Object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != Object || v.obj == nil {
		return Value{}, false
	}
	return v.obj.Get(name)
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Enums become their name. Field order is
// lost on objects.
func (v Value) Interface() any {
	switch v.kind {
	case Boolean:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String, Enum:
		return v.s
	case List:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(name string, item Value) bool {
			out[name] = item.Interface()
			return true
		})
		return out
	}
	return nil
}

// String renders v as a GraphQL literal.
func (v Value) String() string {
	var b strings.Builder
	v.writeLiteral(&b)
	return b.String()
}

func (v Value) writeLiteral(b *strings.Builder) {
	switch v.kind {
	case Undefined:
		b.WriteString("<undefined>")
	case Null:
		b.WriteString("null")
	case Boolean:
		b.WriteString(strconv.FormatBool(v.b))
	case Int:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		b.WriteString(formatFloat(v.f))
	case String:
		b.WriteString(strconv.Quote(v.s))
	case Enum:
		b.WriteString(v.s)
	case List:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeLiteral(b)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		i := 0
		v.obj.Range(func(name string, item Value) bool {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString(": ")
			item.writeLiteral(b)
			i++
			return true
		})
		b.WriteByte('}')
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Sprint(f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal reports deep equality. Object comparison ignores field order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Undefined, Null:
		return true
	case Boolean:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	case String, Enum:
		return a.s == b.s
	case List:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case Object:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		equal := true
		a.obj.Range(func(name string, av Value) bool {
			bv, ok := b.obj.Get(name)
			if !ok || !Equal(av, bv) {
				equal = false
			}
			return equal
		})
		return equal
	}
	return false
}
