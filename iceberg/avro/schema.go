package avro

import (
	"bytes"
	"fmt"
)

// Kind identifies the physical Avro type a Schema node represents. This is
// a deliberately small AST — just enough to express the manifest-entry and
// manifest-file record schemas Iceberg requires, not general-purpose Avro.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindFixed
	KindRecord
	KindArray
	KindMap
	KindUnion
)

// Schema is one node of an Avro type tree.
type Schema struct {
	Kind Kind

	// KindRecord / KindFixed
	Name string
	Doc  string

	// KindRecord
	Fields []Field

	// KindArray
	Items *Schema

	// KindMap (native string-keyed Avro map; Iceberg itself never emits
	// this — see LogicalMap below — but the encoder supports it for
	// completeness since the OCF header format is general purpose)
	Values *Schema

	// KindUnion
	UnionTypes []*Schema

	// KindFixed
	Size int

	// LogicalType annotates a KindArray-of-KindRecord node as an Iceberg
	// "map" (array<record{key,value}>, logicalType: "map"), per the Avro
	// spec's prohibition on non-string map keys.
	LogicalType string

	// ElementID is Iceberg's "element-id" property on an array node; for
	// the six logical-map fields in the manifest-entry schema this equals
	// the enclosing field's field-id.
	ElementID int
}

// Field is one field of a KindRecord schema. FieldID, when non-zero, is
// emitted as the Iceberg "field-id" JSON property.
type Field struct {
	Name    string
	Type    *Schema
	FieldID int
	Doc     string
}

func NullSchema() *Schema    { return &Schema{Kind: KindNull} }
func BooleanSchema() *Schema { return &Schema{Kind: KindBoolean} }
func IntSchema() *Schema     { return &Schema{Kind: KindInt} }
func LongSchema() *Schema    { return &Schema{Kind: KindLong} }
func FloatSchema() *Schema   { return &Schema{Kind: KindFloat} }
func DoubleSchema() *Schema  { return &Schema{Kind: KindDouble} }
func StringSchema() *Schema  { return &Schema{Kind: KindString} }
func BytesSchema() *Schema   { return &Schema{Kind: KindBytes} }

func FixedSchema(name string, size int) *Schema {
	return &Schema{Kind: KindFixed, Name: name, Size: size}
}

func RecordSchema(name string, fields ...Field) *Schema {
	return &Schema{Kind: KindRecord, Name: name, Fields: fields}
}

func ArraySchema(items *Schema) *Schema {
	return &Schema{Kind: KindArray, Items: items}
}

// MapEntryRecord builds the `record{key,value}` schema Iceberg "maps" use,
// carrying the key/value field ids set on keyField and valueField. It
// returns the record only; LogicalMap wraps it in the array<record> node
// flagged with LogicalType "map".
func MapEntryRecord(recordName string, keyField, valueField Field) *Schema {
	return RecordSchema(recordName, keyField, valueField)
}

// LogicalMap wraps a key/value record schema as an Iceberg Avro "map":
// array<record{key,value}> with logicalType "map" on the array node.
// elementID is stamped as the array's "element-id" property, which
// Iceberg requires to equal the enclosing field's field-id.
func LogicalMap(elementSchema *Schema, elementID int) *Schema {
	return &Schema{Kind: KindArray, Items: elementSchema, LogicalType: "map", ElementID: elementID}
}

// NullableUnion builds the `["null", T]` union Iceberg uses for optional
// fields; branch 0 is null, branch 1 is T.
func NullableUnion(t *Schema) *Schema {
	return &Schema{Kind: KindUnion, UnionTypes: []*Schema{NullSchema(), t}}
}

// JSON renders the schema as the Avro JSON schema text stored in the OCF
// header's "avro.schema" key.
func (s *Schema) JSON() string {
	var buf bytes.Buffer
	s.writeJSON(&buf)
	return buf.String()
}

func (s *Schema) writeJSON(buf *bytes.Buffer) {
	switch s.Kind {
	case KindNull:
		buf.WriteString(`"null"`)
	case KindBoolean:
		buf.WriteString(`"boolean"`)
	case KindInt:
		buf.WriteString(`"int"`)
	case KindLong:
		buf.WriteString(`"long"`)
	case KindFloat:
		buf.WriteString(`"float"`)
	case KindDouble:
		buf.WriteString(`"double"`)
	case KindString:
		buf.WriteString(`"string"`)
	case KindBytes:
		buf.WriteString(`"bytes"`)
	case KindFixed:
		fmt.Fprintf(buf, `{"type":"fixed","name":%q,"size":%d}`, s.Name, s.Size)
	case KindArray:
		buf.WriteString(`{"type":"array","items":`)
		s.Items.writeJSON(buf)
		if s.ElementID != 0 {
			fmt.Fprintf(buf, `,"element-id":%d`, s.ElementID)
		}
		if s.LogicalType != "" {
			fmt.Fprintf(buf, `,"logicalType":%q`, s.LogicalType)
		}
		buf.WriteString(`}`)
	case KindMap:
		buf.WriteString(`{"type":"map","values":`)
		s.Values.writeJSON(buf)
		buf.WriteString(`}`)
	case KindUnion:
		buf.WriteString(`[`)
		for i, t := range s.UnionTypes {
			if i > 0 {
				buf.WriteString(`,`)
			}
			t.writeJSON(buf)
		}
		buf.WriteString(`]`)
	case KindRecord:
		fmt.Fprintf(buf, `{"type":"record","name":%q`, s.Name)
		if s.Doc != "" {
			fmt.Fprintf(buf, `,"doc":%q`, s.Doc)
		}
		buf.WriteString(`,"fields":[`)
		for i, f := range s.Fields {
			if i > 0 {
				buf.WriteString(`,`)
			}
			fmt.Fprintf(buf, `{"name":%q,"type":`, f.Name)
			f.Type.writeJSON(buf)
			if f.FieldID != 0 {
				fmt.Fprintf(buf, `,"field-id":%d`, f.FieldID)
			}
			if f.Doc != "" {
				fmt.Fprintf(buf, `,"doc":%q`, f.Doc)
			}
			buf.WriteString(`}`)
		}
		buf.WriteString(`]}`)
	}
}
