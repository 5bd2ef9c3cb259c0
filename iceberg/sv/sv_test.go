package sv

import (
	"math"
	"math/big"
	"testing"

	"github.com/gear6io/iceberg-writer/iceberg/schema"
	"github.com/stretchr/testify/require"
)

func TestRoundTripPrimitives(t *testing.T) {
	cases := []struct {
		name string
		typ  schema.Type
		val  any
	}{
		{"boolean-true", schema.Boolean, true},
		{"boolean-false", schema.Boolean, false},
		{"int", schema.Int, int32(-42)},
		{"long", schema.Long, int64(1 << 40)},
		{"date", schema.Date, int32(19737)},
		{"time", schema.Time, int64(3600000000)},
		{"timestamp", schema.Timestamp, int64(1700000000000000)},
		{"timestamptz", schema.TimestampTz, int64(1700000000000000)},
		{"float", schema.Float, float32(3.25)},
		{"double", schema.Double, float64(3.14159265)},
		{"uuid", schema.UUID, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			enc, ok, err := Encode(c.val, c.typ)
			require.NoError(t, err)
			require.True(t, ok)

			dec, err := Decode(enc, c.typ)
			require.NoError(t, err)

			switch v := c.val.(type) {
			case float32:
				require.Equal(t, math.Float32bits(v), math.Float32bits(dec.(float32)))
			case float64:
				require.Equal(t, math.Float64bits(v), math.Float64bits(dec.(float64)))
			default:
				require.Equal(t, c.val, dec)
			}
		})
	}
}

func TestStringAndBinaryRoundTripByByteEquality(t *testing.T) {
	enc, ok, err := Encode("hello", schema.String)
	require.NoError(t, err)
	require.True(t, ok)
	dec, err := Decode(enc, schema.String)
	require.NoError(t, err)
	require.Equal(t, "hello", dec)

	enc, ok, err = Encode([]byte{0xde, 0xad, 0xbe, 0xef}, schema.Binary)
	require.NoError(t, err)
	require.True(t, ok)
	dec, err = Decode(enc, schema.Binary)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, dec)
}

func TestNilEncodesToNoValue(t *testing.T) {
	_, ok, err := Encode(nil, schema.Int)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecimalRoundTrip(t *testing.T) {
	dt := schema.Decimal{Precision: 38, Scale: 9}
	values := []int64{0, 1, -1, 123456789, -123456789, 1 << 40, -(1 << 40)}

	for _, v := range values {
		enc, ok, err := Encode(big.NewInt(v), dt)
		require.NoError(t, err)
		require.True(t, ok)

		dec, err := Decode(enc, dt)
		require.NoError(t, err)
		require.Equal(t, big.NewInt(v).String(), dec.(*big.Int).String())
	}
}

func TestDecimalMinimalLengthAtPowerOfTwoBoundary(t *testing.T) {
	dt := schema.Decimal{Precision: 38, Scale: 9}
	cases := []struct {
		v         int64
		wantBytes int
	}{
		{-(1 << 7), 1},  // -128: fits exactly in one byte (0x80)
		{-(1 << 15), 2}, // -32768: fits exactly in two bytes (0x8000)
		{-(1 << 23), 3}, // -8388608: fits exactly in three bytes
	}

	for _, c := range cases {
		enc, ok, err := Encode(big.NewInt(c.v), dt)
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, enc, c.wantBytes, "value %d", c.v)

		dec, err := Decode(enc, dt)
		require.NoError(t, err)
		require.Equal(t, big.NewInt(c.v).String(), dec.(*big.Int).String())
	}
}

func TestFixedRoundTrip(t *testing.T) {
	ft := schema.Fixed{Length: 4}
	enc, ok, err := Encode([]byte{1, 2, 3, 4}, ft)
	require.NoError(t, err)
	require.True(t, ok)

	dec, err := Decode(enc, ft)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, dec)
}

func TestBoundsFromValuesDropsUntypedColumns(t *testing.T) {
	sch := schema.NewBuilder(0).
		Field(1, "id", schema.Long, true).
		Field(2, "name", schema.String, false).
		Build()

	bounds := BoundsFromValues(map[int]any{
		1: int64(42),
		2: "hello",
		99: "no such column",
	}, sch)

	require.Len(t, bounds, 2)
	require.Contains(t, bounds, 1)
	require.Contains(t, bounds, 2)
	require.NotContains(t, bounds, 99)
}

func TestStructListMapHaveNoSingleValueEncoding(t *testing.T) {
	_, ok, err := Encode("x", schema.List{ElementID: 1, Element: schema.String})
	require.NoError(t, err)
	require.False(t, ok)
}
