package ingest

// FieldMap is an insertion-ordered mapping from a source column label to the
// textual value extracted for one row.
//
// Order matters: attribute inference walks fields in source column order with
// last-match-wins overwrite semantics, so iteration must reproduce the
// original column layout exactly. Keys are unique within a row; setting an
// existing key overwrites the value but keeps the key's original position.
type FieldMap struct {
	keys   []string
	values map[string]string
}

// NewFieldMap returns an empty FieldMap.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string]string)}
}

// Set stores value under key, appending the key if it is new.
func (m *FieldMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether the key is present.
func (m *FieldMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of fields.
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// Keys returns the field labels in insertion order.
// The returned slice must not be modified.
func (m *FieldMap) Keys() []string {
	return m.keys
}

// Each calls fn for every (key, value) pair in insertion order.
func (m *FieldMap) Each(fn func(key, value string)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}
