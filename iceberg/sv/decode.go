package sv

import (
	"encoding/binary"
	"math"
	"math/big"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/gear6io/iceberg-writer/iceberg/schema"
)

var codeDecodeFailed = ibxerrors.SvCode("decode_failed")

// Decode is the inverse of Encode: given Appendix D bytes and the
// Iceberg type they were encoded against, returns the Go value.
func Decode(b []byte, t schema.Type) (any, error) {
	switch tt := t.(type) {
	case schema.Primitive:
		return decodePrimitive(b, tt)
	case schema.Decimal:
		return decodeDecimal(b), nil
	case schema.Fixed:
		if len(b) != tt.Length {
			return nil, ibxerrors.Newf(codeDecodeFailed, "fixed[%d]: got %d bytes", tt.Length, len(b))
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	default:
		return nil, ibxerrors.Newf(codeDecodeFailed, "type %s has no single-value encoding", t.String())
	}
}

func decodePrimitive(b []byte, t schema.Primitive) (any, error) {
	switch t.Kind() {
	case schema.KindBoolean:
		if len(b) != 1 {
			return nil, ibxerrors.New(codeDecodeFailed, "boolean: expected 1 byte", nil)
		}
		return b[0] != 0, nil

	case schema.KindInt, schema.KindDate:
		if len(b) != 4 {
			return nil, ibxerrors.New(codeDecodeFailed, "4-byte int type: wrong length", nil)
		}
		return int32(binary.LittleEndian.Uint32(b)), nil

	case schema.KindLong, schema.KindTime, schema.KindTimestamp, schema.KindTimestampTz:
		if len(b) != 8 {
			return nil, ibxerrors.New(codeDecodeFailed, "8-byte int type: wrong length", nil)
		}
		return int64(binary.LittleEndian.Uint64(b)), nil

	case schema.KindFloat:
		if len(b) != 4 {
			return nil, ibxerrors.New(codeDecodeFailed, "float: wrong length", nil)
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil

	case schema.KindDouble:
		if len(b) != 8 {
			return nil, ibxerrors.New(codeDecodeFailed, "double: wrong length", nil)
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil

	case schema.KindString:
		out := make([]byte, len(b))
		copy(out, b)
		return string(out), nil

	case schema.KindBinary:
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil

	case schema.KindUUID:
		if len(b) != 16 {
			return nil, ibxerrors.New(codeDecodeFailed, "uuid: expected 16 bytes", nil)
		}
		var out [16]byte
		copy(out[:], b)
		return out, nil
	}
	return nil, ibxerrors.Newf(codeDecodeFailed, "%s: no decoder", t.String())
}

func decodeDecimal(b []byte) *big.Int {
	if len(b) == 0 {
		return big.NewInt(0)
	}
	n := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		n.Sub(n, mod)
	}
	return n
}

// BoundsFromValues resolves each column's type from sch and encodes the
// given per-column value mapping, dropping entries that cannot be typed
// or encoded (spec §4.3: "yields {column-id → bytes}, dropping entries
// that cannot be typed").
func BoundsFromValues(values map[int]any, sch *schema.Schema) map[int][]byte {
	out := make(map[int][]byte, len(values))
	for colID, v := range values {
		f, ok := sch.FieldByID(colID)
		if !ok {
			continue
		}
		b, ok, err := Encode(v, f.Type)
		if err != nil || !ok {
			continue
		}
		out[colID] = b
	}
	return out
}
