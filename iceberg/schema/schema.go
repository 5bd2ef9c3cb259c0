package schema

// Schema is the top-level `{schema-id, type: "struct", fields: [...]}`
// document (spec §3). It embeds Struct for its field list.
type Schema struct {
	SchemaID int
	Struct   Struct
}

// Fields is a convenience accessor over the embedded struct's fields.
func (s *Schema) Fields() []Field { return s.Struct.Fields }

// MaxFieldID returns the highest field id appearing anywhere in the
// schema, recursing into nested struct/list/map types. Used by the
// metadata state machine to compute last-column-id as max(field.id), per
// spec §4.9 (not count(fields), the prior behavior the spec explicitly
// calls out as incorrect for non-contiguous ids).
func (s *Schema) MaxFieldID() int {
	max := 0
	var walk func(t Type, extraIDs ...int)
	walk = func(t Type, extraIDs ...int) {
		for _, id := range extraIDs {
			if id > max {
				max = id
			}
		}
		switch v := t.(type) {
		case Struct:
			for _, f := range v.Fields {
				if f.ID > max {
					max = f.ID
				}
				walk(f.Type)
			}
		case List:
			walk(v.Element, v.ElementID)
		case Map:
			walk(v.Key, v.KeyID)
			walk(v.Value, v.ValueID)
		}
	}
	walk(s.Struct)
	return max
}

// FieldByID looks up a top-level field by id.
func (s *Schema) FieldByID(id int) (Field, bool) { return s.Struct.FieldByID(id) }

// FieldByName looks up a top-level field by name.
func (s *Schema) FieldByName(name string) (Field, bool) { return s.Struct.FieldByName(name) }

// Clone produces a deep-enough copy of the schema for evolution functions
// to mutate without aliasing the original's Fields slice.
func (s *Schema) Clone() *Schema {
	fields := make([]Field, len(s.Struct.Fields))
	copy(fields, s.Struct.Fields)
	return &Schema{SchemaID: s.SchemaID, Struct: Struct{Fields: fields}}
}
