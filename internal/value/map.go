package value

// Map is an insertion-ordered name→Value map. Setting an existing name
// replaces the value in place and keeps its original position.
type Map struct {
	names  []string
	values []Value
	index  map[string]int
}

func NewMap(capacity int) *Map {
	return &Map{
		names:  make([]string, 0, capacity),
		values: make([]Value, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (m *Map) Set(name string, v Value) {
	if i, ok := m.index[name]; ok {
		m.values[i] = v
		return
	}
	m.index[name] = len(m.names)
	m.names = append(m.names, name)
	m.values = append(m.values, v)
}

func (m *Map) Get(name string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	i, ok := m.index[name]
	if !ok {
		return Value{}, false
	}
	return m.values[i], true
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(name string, v Value) bool) {
	if m == nil {
		return
	}
	for i, name := range m.names {
		if !fn(name, m.values[i]) {
			return
		}
	}
}
