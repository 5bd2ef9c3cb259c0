package schema

import "encoding/json"

// NameMappingEntry is one element of the `schema.name-mapping.default`
// property: `{"field-id": id, "names": [name]}`.
type NameMappingEntry struct {
	FieldID int      `json:"field-id"`
	Names   []string `json:"names"`
}

// BuildNameMapping derives the default name-mapping JSON for a schema:
// one entry per top-level field, in field order, with a single name
// (this system doesn't track alias history beyond the current name —
// renames are field-id-stable, so a reader following the mapping by id
// still resolves correctly after a rename).
func BuildNameMapping(s *Schema) ([]byte, error) {
	entries := make([]NameMappingEntry, 0, len(s.Struct.Fields))
	for _, f := range s.Struct.Fields {
		entries = append(entries, NameMappingEntry{FieldID: f.ID, Names: []string{f.Name}})
	}
	return json.Marshal(entries)
}
