package avro

import (
	"bytes"
	"crypto/rand"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/google/uuid"
)

var magic = [4]byte{'O', 'b', 'j', 1}

var codeBlockWriteFailed = ibxerrors.AvroCode("block_write_failed")

// Writer buffers records and serializes them into a single Avro 1.11
// Object Container File: magic bytes, header (schema + codec + arbitrary
// user metadata), a 16-byte sync marker, then one data block holding every
// appended record. Iceberg readers only ever need one block per file, so
// this writer never splits across blocks.
type Writer struct {
	schema *Schema
	codec  Codec
	meta   map[string][]byte
	sync   [16]byte
	count  int64
	body   []byte // raw (uncompressed) encoded records, concatenated
}

// NewWriter creates a Writer for the given record schema. meta may be nil;
// any keys it sets other than "avro.schema"/"avro.codec" are passed
// through verbatim into the OCF header (the manifest/manifest-list
// builders use this for Iceberg's format-version/partition-spec/schema
// metadata keys).
func NewWriter(schema *Schema, codec Codec, meta map[string][]byte) (*Writer, error) {
	if schema == nil || schema.Kind != KindRecord {
		return nil, ibxerrors.New(codeBlockWriteFailed, "writer schema must be a record", nil)
	}
	w := &Writer{schema: schema, codec: codec, meta: meta}
	syncBytes, err := randomSyncMarker()
	if err != nil {
		return nil, err
	}
	copy(w.sync[:], syncBytes)
	return w, nil
}

func randomSyncMarker() ([]byte, error) {
	// uuid.New() draws from crypto/rand and gives us 16 bytes for free;
	// fall back to reading crypto/rand directly if uuid generation ever
	// fails (it practically never does).
	id, err := uuid.NewRandom()
	if err == nil {
		b := id
		return b[:], nil
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, ibxerrors.New(codeBlockWriteFailed, "failed to generate sync marker", err)
	}
	return buf, nil
}

// Append encodes one record (a map[string]any keyed by field name) and
// adds it to the pending block.
func (w *Writer) Append(record map[string]any) error {
	encoded, err := encodeValue(nil, w.schema, record)
	if err != nil {
		return ibxerrors.New(codeBlockWriteFailed, "failed to encode record", err)
	}
	w.body = append(w.body, encoded...)
	w.count++
	return nil
}

// Bytes flushes the pending block (if any records were appended) and
// returns the complete OCF byte stream.
func (w *Writer) Bytes() ([]byte, error) {
	var out bytes.Buffer
	out.Write(magic[:])

	header, err := w.encodeHeader()
	if err != nil {
		return nil, err
	}
	out.Write(header)
	out.Write(w.sync[:])

	if w.count > 0 {
		compressed, err := compressBlock(w.codec, w.body)
		if err != nil {
			return nil, err
		}
		var block []byte
		block = AppendVarint(block, w.count)
		block = AppendVarint(block, int64(len(compressed)))
		block = append(block, compressed...)
		out.Write(block)
		out.Write(w.sync[:])
	}

	return out.Bytes(), nil
}

func (w *Writer) encodeHeader() ([]byte, error) {
	meta := make(map[string][]byte, len(w.meta)+2)
	for k, v := range w.meta {
		meta[k] = v
	}
	meta["avro.schema"] = []byte(w.schema.JSON())
	codec := w.codec
	if codec == "" {
		codec = CodecNull
	}
	meta["avro.codec"] = []byte(codec)

	// The header is itself an Avro value: a map<bytes> with deterministic
	// key order isn't required by the spec, but sorting keeps output
	// byte-stable across runs (useful for golden-file tests).
	keys := sortedKeys(meta)
	var buf []byte
	if len(keys) > 0 {
		buf = AppendVarint(buf, int64(len(keys)))
		for _, k := range keys {
			buf = AppendVarint(buf, int64(len(k)))
			buf = append(buf, k...)
			v := meta[k]
			buf = AppendVarint(buf, int64(len(v)))
			buf = append(buf, v...)
		}
	}
	buf = AppendVarint(buf, 0)
	return buf, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
