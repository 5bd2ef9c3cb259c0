package avro

import (
	"bufio"
	"io"
)

// EncodeZigzag64 maps a signed 64-bit integer to an unsigned one so small
// magnitudes (positive or negative) produce small varints.
func EncodeZigzag64(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// DecodeZigzag64 is the inverse of EncodeZigzag64.
func DecodeZigzag64(z uint64) int64 {
	return int64(z>>1) ^ -int64(z&1)
}

// EncodeZigzag32 is EncodeZigzag64 restricted to 32-bit range, kept for
// callers that only ever deal with Avro "int".
func EncodeZigzag32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// DecodeZigzag32 is the inverse of EncodeZigzag32.
func DecodeZigzag32(z uint32) int32 {
	return int32(z>>1) ^ -int32(z&1)
}

// AppendVarint writes the zigzag+varint encoding of n (Avro "long") onto buf
// and returns the extended slice.
func AppendVarint(buf []byte, n int64) []byte {
	z := EncodeZigzag64(n)
	for z >= 0x80 {
		buf = append(buf, byte(z)|0x80)
		z >>= 7
	}
	return append(buf, byte(z))
}

// AppendVarint32 is AppendVarint for Avro "int" values.
func AppendVarint32(buf []byte, n int32) []byte {
	return AppendVarint(buf, int64(n))
}

// ReadVarint reads a zigzag+varint encoded long from r.
func ReadVarint(r io.ByteReader) (int64, error) {
	var z uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		z |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 70 {
			return 0, io.ErrUnexpectedEOF
		}
	}
	return DecodeZigzag64(z), nil
}

// byteReader adapts an io.Reader lacking ReadByte (rarely needed since
// callers typically hold a *bufio.Reader already).
func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
