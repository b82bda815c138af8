package types

import "time"

// Record is one entity held by a store. Fields holds canonical values as
// produced by the validate package.
type Record struct {
	Key       string         `json:"key"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Get returns the value of a field.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Clone returns a deep copy of the record. List values are copied so callers
// cannot mutate a stored record through the result.
func (r Record) Clone() Record {
	out := r
	out.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			v = cp
		}
		out.Fields[k] = v
	}
	return out
}
