package avro

import (
	"fmt"
	"math"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeEncodeFailed = ibxerrors.AvroCode("encode_failed")

// MapEntry is one key/value pair of an Iceberg "map" field. Order is
// preserved as given — callers that need deterministic output (manifest
// bounds, column stats) must sort before building a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is the caller-facing representation of an Iceberg Avro "map":
// encoded as array<record{key,value}> per the spec (Avro forbids
// non-string map keys).
type Map []MapEntry

// encodeValue appends the Avro binary encoding of v (interpreted against
// schema s) to buf.
func encodeValue(buf []byte, s *Schema, v any) ([]byte, error) {
	switch s.Kind {
	case KindNull:
		return buf, nil

	case KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected bool, got %T", v), nil)
		}
		if b {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil

	case KindInt:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return AppendVarint(buf, n), nil

	case KindLong:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return AppendVarint(buf, n), nil

	case KindFloat:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		bits := math.Float32bits(float32(f))
		return append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24)), nil

	case KindDouble:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		bits := math.Float64bits(f)
		return append(buf,
			byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
			byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56),
		), nil

	case KindString:
		str, ok := v.(string)
		if !ok {
			return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected string, got %T", v), nil)
		}
		buf = AppendVarint(buf, int64(len(str)))
		return append(buf, str...), nil

	case KindBytes:
		b, err := asBytes(v)
		if err != nil {
			return nil, err
		}
		buf = AppendVarint(buf, int64(len(b)))
		return append(buf, b...), nil

	case KindFixed:
		b, err := asBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != s.Size {
			return nil, ibxerrors.Newf(codeEncodeFailed, "fixed %s expects %d bytes, got %d", s.Name, s.Size, len(b))
		}
		return append(buf, b...), nil

	case KindRecord:
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected map[string]any for record %s, got %T", s.Name, v), nil)
		}
		var err error
		for _, f := range s.Fields {
			buf, err = encodeValue(buf, f.Type, rec[f.Name])
			if err != nil {
				return nil, ibxerrors.Newf(codeEncodeFailed, "field %s.%s: %v", s.Name, f.Name, err)
			}
		}
		return buf, nil

	case KindUnion:
		return encodeUnion(buf, s, v)

	case KindArray:
		if s.LogicalType == "map" {
			return encodeLogicalMap(buf, s, v)
		}
		return encodeArray(buf, s, v)

	case KindMap:
		return encodeNativeMap(buf, s, v)
	}
	return nil, ibxerrors.Newf(codeEncodeFailed, "unsupported schema kind %d", s.Kind)
}

func encodeUnion(buf []byte, s *Schema, v any) ([]byte, error) {
	if v == nil {
		// Branch 0 MUST be "null" in every union this encoder accepts.
		return AppendVarint(buf, 0), nil
	}
	// Iceberg only ever uses two-branch ["null", T] unions; branch index 1
	// carries the value.
	buf = AppendVarint(buf, 1)
	return encodeValue(buf, s.UnionTypes[1], v)
}

func encodeArray(buf []byte, s *Schema, v any) ([]byte, error) {
	items, err := asSlice(v)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		buf = AppendVarint(buf, int64(len(items)))
		for _, item := range items {
			buf, err = encodeValue(buf, s.Items, item)
			if err != nil {
				return nil, err
			}
		}
	}
	return AppendVarint(buf, 0), nil
}

func encodeNativeMap(buf []byte, s *Schema, v any) ([]byte, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected map[string]any, got %T", v), nil)
	}
	if len(m) > 0 {
		buf = AppendVarint(buf, int64(len(m)))
		var err error
		for k, val := range m {
			buf = AppendVarint(buf, int64(len(k)))
			buf = append(buf, k...)
			buf, err = encodeValue(buf, s.Values, val)
			if err != nil {
				return nil, err
			}
		}
	}
	return AppendVarint(buf, 0), nil
}

// encodeLogicalMap flattens an Iceberg "map" (given as Map, a key-ordered
// slice of MapEntry) into the array<record{key,value}> wire form Avro
// requires for non-string keys.
func encodeLogicalMap(buf []byte, s *Schema, v any) ([]byte, error) {
	m, ok := v.(Map)
	if !ok {
		return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected avro.Map, got %T", v), nil)
	}
	elem := s.Items
	if len(m) > 0 {
		buf = AppendVarint(buf, int64(len(m)))
		var err error
		for _, entry := range m {
			rec := map[string]any{
				elem.Fields[0].Name: entry.Key,
				elem.Fields[1].Name: entry.Value,
			}
			buf, err = encodeValue(buf, elem, rec)
			if err != nil {
				return nil, err
			}
		}
	}
	return AppendVarint(buf, 0), nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	}
	return 0, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected integer, got %T", v), nil)
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected float, got %T", v), nil)
}

func asBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected []byte, got %T", v), nil)
}

func asSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case nil:
		return nil, nil
	}
	return nil, ibxerrors.New(codeEncodeFailed, fmt.Sprintf("expected []any, got %T", v), nil)
}
