// Package schema implements the Iceberg v2 typed schema model: primitive,
// parameterized, and complex (nested) types, fields, and the schema
// document itself, plus a type-string parser/registry and a fluent
// builder.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeKind identifies the broad category of an Iceberg Type.
type TypeKind int

const (
	KindBoolean TypeKind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindDate
	KindTime
	KindTimestamp
	KindTimestampTz
	KindString
	KindUUID
	KindBinary
	KindDecimal
	KindFixed
	KindStruct
	KindList
	KindMap
)

// Type is the common interface for every Iceberg type. Instances are
// immutable value types; evolution always produces a new Type rather than
// mutating one in place.
type Type interface {
	Kind() TypeKind
	String() string
}

// Primitive represents every fixed-shape Iceberg type that isn't
// parameterized or nested.
type Primitive struct {
	kind TypeKind
}

func (p Primitive) Kind() TypeKind { return p.kind }

func (p Primitive) String() string {
	switch p.kind {
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTz:
		return "timestamptz"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	case KindBinary:
		return "binary"
	}
	return "unknown"
}

var (
	Boolean     Type = Primitive{KindBoolean}
	Int         Type = Primitive{KindInt}
	Long        Type = Primitive{KindLong}
	Float       Type = Primitive{KindFloat}
	Double      Type = Primitive{KindDouble}
	Date        Type = Primitive{KindDate}
	Time        Type = Primitive{KindTime}
	Timestamp   Type = Primitive{KindTimestamp}
	TimestampTz Type = Primitive{KindTimestampTz}
	String      Type = Primitive{KindString}
	UUID        Type = Primitive{KindUUID}
	Binary      Type = Primitive{KindBinary}
)

// Decimal is a fixed-precision decimal(P,S) type.
type Decimal struct {
	Precision int
	Scale     int
}

func (d Decimal) Kind() TypeKind { return KindDecimal }
func (d Decimal) String() string { return fmt.Sprintf("decimal(%d,%d)", d.Precision, d.Scale) }

// Fixed is a fixed[L] byte-array type.
type Fixed struct {
	Length int
}

func (f Fixed) Kind() TypeKind { return KindFixed }
func (f Fixed) String() string { return fmt.Sprintf("fixed[%d]", f.Length) }

// Field is one field of a Struct. ID is permanent: renames keep it,
// drops never return it to the pool.
type Field struct {
	ID       int
	Name     string
	Type     Type
	Required bool
	Doc      string
}

// Struct is an ordered sequence of fields; both the top-level Schema and
// any nested struct column share this representation.
type Struct struct {
	Fields []Field
}

func (s Struct) Kind() TypeKind { return KindStruct }

func (s Struct) String() string {
	var b strings.Builder
	b.WriteString("struct<")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %s: %s", f.ID, f.Name, f.Type.String())
	}
	b.WriteString(">")
	return b.String()
}

// FieldByName returns the field named name and whether it was found.
func (s Struct) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByID returns the field with the given id and whether it was found.
func (s Struct) FieldByID(id int) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// List is a homogeneous array column.
type List struct {
	ElementID       int
	Element         Type
	ElementRequired bool
}

func (l List) Kind() TypeKind { return KindList }
func (l List) String() string { return fmt.Sprintf("list<%d: %s>", l.ElementID, l.Element.String()) }

// Map is a key/value column. Iceberg maps always carry explicit key and
// value field ids, independent of the Avro "map" wire-encoding concern in
// package avro.
type Map struct {
	KeyID         int
	Key           Type
	ValueID       int
	Value         Type
	ValueRequired bool
}

func (m Map) Kind() TypeKind { return KindMap }
func (m Map) String() string {
	return fmt.Sprintf("map<%d: %s, %d: %s>", m.KeyID, m.Key.String(), m.ValueID, m.Value.String())
}

var (
	decimalRe = regexp.MustCompile(`^decimal\((\d+),\s*(\d+)\)$`)
	fixedRe   = regexp.MustCompile(`^fixed\[(\d+)\]$`)
)

// ParsePrimitiveOrParameterized parses a type-string for a primitive,
// decimal(P,S), or fixed[L] type. It rejects ambiguous or malformed
// strings; struct/list/map are structural and are never parsed from a
// bare string (they're built directly as Struct/List/Map values).
func ParsePrimitiveOrParameterized(s string) (Type, error) {
	switch s {
	case "boolean":
		return Boolean, nil
	case "int":
		return Int, nil
	case "long":
		return Long, nil
	case "float":
		return Float, nil
	case "double":
		return Double, nil
	case "date":
		return Date, nil
	case "time":
		return Time, nil
	case "timestamp":
		return Timestamp, nil
	case "timestamptz":
		return TimestampTz, nil
	case "string":
		return String, nil
	case "uuid":
		return UUID, nil
	case "binary":
		return Binary, nil
	}
	if m := decimalRe.FindStringSubmatch(s); m != nil {
		p, _ := strconv.Atoi(m[1])
		sc, _ := strconv.Atoi(m[2])
		if sc > p {
			return nil, fmt.Errorf("invalid decimal type %q: scale exceeds precision", s)
		}
		return Decimal{Precision: p, Scale: sc}, nil
	}
	if m := fixedRe.FindStringSubmatch(s); m != nil {
		l, _ := strconv.Atoi(m[1])
		return Fixed{Length: l}, nil
	}
	return nil, fmt.Errorf("ambiguous or unknown type string %q", s)
}
