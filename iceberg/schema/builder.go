package schema

// Builder is the struct-literal/fluent replacement for a compile-time
// schema DSL (spec §9 design note: "macro-based schema DSL" → builder
// API). The schema value it produces is the contract; the builder itself
// is cosmetic.
type Builder struct {
	schemaID int
	fields   []Field
}

// NewBuilder starts a Builder for the given schema-id.
func NewBuilder(schemaID int) *Builder {
	return &Builder{schemaID: schemaID}
}

// Field appends a top-level field and returns the Builder for chaining.
func (b *Builder) Field(id int, name string, t Type, required bool) *Builder {
	b.fields = append(b.fields, Field{ID: id, Name: name, Type: t, Required: required})
	return b
}

// FieldWithDoc is Field plus a doc string.
func (b *Builder) FieldWithDoc(id int, name string, t Type, required bool, doc string) *Builder {
	b.fields = append(b.fields, Field{ID: id, Name: name, Type: t, Required: required, Doc: doc})
	return b
}

// Build finalizes the Builder into a Schema.
func (b *Builder) Build() *Schema {
	return &Schema{SchemaID: b.schemaID, Struct: Struct{Fields: b.fields}}
}
