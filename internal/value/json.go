package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalJSON encodes v keeping object field order. Undefined encodes as null;
// callers that need to omit absent values do so before encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case Undefined, Null:
		buf.WriteString("null")
	case Boolean:
		buf.WriteString(strconv.FormatBool(v.b))
	case Int:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return fmt.Errorf("value: cannot encode %v as JSON", v.f)
		}
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case String, Enum:
		s, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(s)
	case List:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		var err error
		i := 0
		v.obj.Range(func(name string, item Value) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			var key []byte
			if key, err = json.Marshal(name); err != nil {
				return false
			}
			buf.Write(key)
			buf.WriteByte(':')
			err = item.writeJSON(buf)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes JSON into a Value, keeping object key order. Numbers
// without fraction or exponent that fit in int64 become Int.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	out, err := decodeJSON(dec)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBoolean(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return fromNumber(t)
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return NewList(items...), nil
		case '{':
			m := NewMap(0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, _ := keyTok.(string)
				item, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return NewObject(m), nil
		}
	}
	return Value{}, fmt.Errorf("value: unexpected JSON token %v", tok)
}

func fromNumber(n json.Number) (Value, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return NewInt(i), nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return Value{}, fmt.Errorf("value: invalid number %q", n)
	}
	return NewFloat(f), nil
}
