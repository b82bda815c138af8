package types

// Schema describes one kind of record: its fields and which of them is the key.
type Schema struct {
	Kind         string
	Description  string
	Key          string // Name of the key field. Empty when GeneratedKey is set.
	GeneratedKey bool   // Keys are generated UUIDs instead of a field value.
	OrderBy      string // Default list order; insertion order when empty.
	Fields       []Field
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// KeyField returns the key field. ok is false for generated keys.
func (s Schema) KeyField() (Field, bool) {
	if s.GeneratedKey || s.Key == "" {
		return Field{}, false
	}
	return s.Field(s.Key)
}

// FieldNames lists field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// References returns the fields that point at another kind.
func (s Schema) References() []Field {
	var refs []Field
	for _, f := range s.Fields {
		if f.Ref != "" {
			refs = append(refs, f)
		}
	}
	return refs
}
