// Package sv implements the Iceberg Appendix D single-value binary
// serialization used for manifest min/max bounds.
package sv

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/gear6io/iceberg-writer/iceberg/schema"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeUnsupportedType = ibxerrors.SvCode("unsupported_type")

// Encode renders v as the Appendix D byte form for Iceberg type t. The
// second return value is false when t/v cannot be encoded (e.g. t is a
// struct/list/map, which Appendix D does not define bounds for); nil
// input always encodes as "no value" (ok=false, err=nil) so callers drop
// the key from the surrounding bounds map instead of writing a null.
func Encode(v any, t schema.Type) ([]byte, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	switch tt := t.(type) {
	case schema.Primitive:
		return encodePrimitive(v, tt)
	case schema.Decimal:
		b, err := encodeDecimal(v, tt)
		if err != nil {
			return nil, false, err
		}
		return b, true, nil
	case schema.Fixed:
		b, ok := v.([]byte)
		if !ok || len(b) != tt.Length {
			return nil, false, ibxerrors.Newf(codeUnsupportedType, "fixed[%d]: expected %d raw bytes, got %T", tt.Length, tt.Length, v)
		}
		return b, true, nil
	default:
		return nil, false, nil
	}
}

func encodePrimitive(v any, t schema.Primitive) ([]byte, bool, error) {
	switch t.Kind() {
	case schema.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		if b {
			return []byte{1}, true, nil
		}
		return []byte{0}, true, nil

	case schema.KindInt, schema.KindDate:
		n, ok := asInt64(v)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(n)))
		return buf, true, nil

	case schema.KindLong, schema.KindTime, schema.KindTimestamp, schema.KindTimestampTz:
		n, ok := asInt64(v)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, true, nil

	case schema.KindFloat:
		f, ok := asFloat64(v)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, true, nil

	case schema.KindDouble:
		f, ok := asFloat64(v)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		return buf, true, nil

	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		return []byte(s), true, nil

	case schema.KindBinary:
		b, ok := v.([]byte)
		if !ok {
			return nil, false, typeErr(t, v)
		}
		return b, true, nil

	case schema.KindUUID:
		b, ok := v.([16]byte)
		if ok {
			return b[:], true, nil
		}
		if bs, ok := v.([]byte); ok && len(bs) == 16 {
			return bs, true, nil
		}
		return nil, false, typeErr(t, v)
	}
	return nil, false, nil
}

// encodeDecimal renders the unscaled value of a decimal(P,S) as the
// minimal-length, two's-complement, big-endian byte form Appendix D
// requires (spec's explicitly called-out fix over a byte pass-through).
func encodeDecimal(v any, t schema.Decimal) ([]byte, error) {
	var unscaled *big.Int
	switch n := v.(type) {
	case *big.Int:
		unscaled = n
	case int64:
		unscaled = big.NewInt(n)
	case int:
		unscaled = big.NewInt(int64(n))
	default:
		return nil, ibxerrors.Newf(codeUnsupportedType, "decimal(%d,%d): expected *big.Int/int64, got %T", t.Precision, t.Scale, v)
	}
	return minimalTwosComplement(unscaled), nil
}

// minimalTwosComplement returns the shortest big-endian two's-complement
// representation of n: for n>=0 the smallest byte count whose leading bit
// is 0, for n<0 the smallest byte count whose leading bit is 1.
func minimalTwosComplement(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	if n.Sign() > 0 {
		b := n.Bytes()
		if len(b) == 0 || b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// Two's complement of a negative number: find the smallest byte width
	// k such that -2^(8k-1) <= n, then compute 2^(8k) + n. Deriving the bit
	// length from abs(n) overcounts by one byte whenever n == -2^(8k-1)
	// exactly (e.g. -128), since abs(n) there is itself a power of two with
	// bit length 8k, not 8k-1; -n-1 doesn't have that off-by-one.
	m := new(big.Int).Sub(new(big.Int).Neg(n), big.NewInt(1))
	byteLen := (m.BitLen() + 8) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(byteLen*8))
	twos := new(big.Int).Add(mod, n)
	b := twos.Bytes()
	for len(b) < byteLen {
		b = append([]byte{0xff}, b...)
	}
	return b
}

func typeErr(t schema.Type, v any) error {
	return ibxerrors.Newf(codeUnsupportedType, "%s: unexpected value type %T", t.String(), v)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
