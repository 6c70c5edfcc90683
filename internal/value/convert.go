package value

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FromGo converts loosely typed input, such as variables decoded from a JSON
// request body, into a Value. It is meant for transport boundaries only; the
// execution path works on Values.
//
// Map keys are sorted because Go maps carry no order.
func FromGo(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return x, nil
	case bool:
		return NewBoolean(x), nil
	case string:
		return NewString(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int8:
		return NewInt(int64(x)), nil
	case int16:
		return NewInt(int64(x)), nil
	case int32:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case uint8:
		return NewInt(int64(x)), nil
	case uint16:
		return NewInt(int64(x)), nil
	case uint32:
		return NewInt(int64(x)), nil
	case float32:
		return NewFloat(float64(x)), nil
	case float64:
		if x >= -1<<53 && x <= 1<<53 && x == float64(int64(x)) {
			return NewInt(int64(x)), nil
		}
		return NewFloat(x), nil
	case json.Number:
		return fromNumber(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return NewList(items...), nil
	case map[string]any:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		m := NewMap(len(names))
		for _, name := range names {
			v, err := FromGo(x[name])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", name, err)
			}
			m.Set(name, v)
		}
		return NewObject(m), nil
	}
	return Value{}, fmt.Errorf("value: unsupported input type %T", in)
}
