package flatten

import (
	"bytes"
	"encoding/json"
)

// Row is a single-level mapping from key path to scalar that remembers
// insertion order.
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow returns an empty Row.
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set stores v under key. Re-setting a key keeps its original position.
func (r *Row) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value under key and whether it is present.
func (r *Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Row) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len is the number of entries.
func (r *Row) Len() int { return len(r.keys) }

// Map returns a copy of the entries as a plain map.
func (r *Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the row as an object in insertion order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
