package avro

import (
	"bufio"
	"fmt"
	"io"
	"math"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeDecodeFailed = ibxerrors.AvroCode("decode_failed")

// decodeValue reads one value of schema s from r.
func decodeValue(r *bufio.Reader, s *Schema) (any, error) {
	switch s.Kind {
	case KindNull:
		return nil, nil

	case KindBoolean:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil

	case KindInt:
		n, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		return int32(n), nil

	case KindLong:
		n, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		return n, nil

	case KindFloat:
		var raw [4]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, err
		}
		bits := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		return math.Float32frombits(bits), nil

	case KindDouble:
		var raw [8]byte
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, err
		}
		bits := uint64(raw[0]) | uint64(raw[1])<<8 | uint64(raw[2])<<16 | uint64(raw[3])<<24 |
			uint64(raw[4])<<32 | uint64(raw[5])<<40 | uint64(raw[6])<<48 | uint64(raw[7])<<56
		return math.Float64frombits(bits), nil

	case KindString:
		b, err := decodeBytesLen(r)
		if err != nil {
			return nil, err
		}
		return string(b), nil

	case KindBytes:
		return decodeBytesLen(r)

	case KindFixed:
		buf := make([]byte, s.Size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return buf, nil

	case KindRecord:
		rec := make(map[string]any, len(s.Fields))
		for _, f := range s.Fields {
			v, err := decodeValue(r, f.Type)
			if err != nil {
				return nil, ibxerrors.Newf(codeDecodeFailed, "field %s.%s: %v", s.Name, f.Name, err)
			}
			rec[f.Name] = v
		}
		return rec, nil

	case KindUnion:
		idx, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		if idx < 0 || int(idx) >= len(s.UnionTypes) {
			return nil, ibxerrors.Newf(codeDecodeFailed, "union branch %d out of range", idx)
		}
		return decodeValue(r, s.UnionTypes[idx])

	case KindArray:
		if s.LogicalType == "map" {
			return decodeLogicalMap(r, s)
		}
		return decodeArray(r, s)

	case KindMap:
		return decodeNativeMap(r, s)
	}
	return nil, ibxerrors.Newf(codeDecodeFailed, "unsupported schema kind %d", s.Kind)
}

func decodeBytesLen(r *bufio.Reader) ([]byte, error) {
	n, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ibxerrors.Newf(codeDecodeFailed, "negative length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeArray(r *bufio.Reader, s *Schema) ([]any, error) {
	var out []any
	for {
		count, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return out, nil
		}
		n := count
		if n < 0 {
			n = -n
			if _, err := ReadVarint(r); err != nil { // byte_count, unused
				return nil, err
			}
		}
		for i := int64(0); i < n; i++ {
			v, err := decodeValue(r, s.Items)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
}

func decodeNativeMap(r *bufio.Reader, s *Schema) (map[string]any, error) {
	out := make(map[string]any)
	for {
		count, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return out, nil
		}
		n := count
		if n < 0 {
			n = -n
			if _, err := ReadVarint(r); err != nil {
				return nil, err
			}
		}
		for i := int64(0); i < n; i++ {
			k, err := decodeBytesLen(r)
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(r, s.Values)
			if err != nil {
				return nil, err
			}
			out[string(k)] = v
		}
	}
}

func decodeLogicalMap(r *bufio.Reader, s *Schema) (Map, error) {
	elem := s.Items
	if len(elem.Fields) != 2 {
		return nil, fmt.Errorf("logical map element record must have exactly 2 fields, got %d", len(elem.Fields))
	}
	keyName, valName := elem.Fields[0].Name, elem.Fields[1].Name
	var out Map
	for {
		count, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return out, nil
		}
		n := count
		if n < 0 {
			n = -n
			if _, err := ReadVarint(r); err != nil {
				return nil, err
			}
		}
		for i := int64(0); i < n; i++ {
			v, err := decodeValue(r, elem)
			if err != nil {
				return nil, err
			}
			rec := v.(map[string]any)
			out = append(out, MapEntry{Key: rec[keyName], Value: rec[valName]})
		}
	}
}
