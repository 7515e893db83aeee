package layout

// Value is a decoded field value.
type Value struct {
	Name  string
	Value uint64
}

// Record holds the field values of one decoded record, in layout order.
type Record []Value

// Get returns the value of the named field.
func (r Record) Get(name string) (uint64, bool) {
	for _, v := range r {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}

// Map returns the record values keyed by field name.
func (r Record) Map() map[string]uint64 {
	m := make(map[string]uint64, len(r))
	for _, v := range r {
		m[v.Name] = v.Value
	}
	return m
}
