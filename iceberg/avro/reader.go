package avro

import (
	"bufio"
	"bytes"
	"io"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeReadFailed = ibxerrors.AvroCode("read_failed")

// Header holds the parsed OCF header: the declared codec and every
// metadata key/value pair (including "avro.schema" verbatim, so callers
// can inspect Iceberg-specific keys like "partition-spec").
type Header struct {
	Codec Codec
	Meta  map[string][]byte
	Sync  [16]byte
}

// ReadAll parses an OCF byte stream written by Writer and decodes every
// record of every block against schema. schema must match the schema the
// file was written with (this reader does not parse "avro.schema" back
// into a Schema tree — callers that wrote the file already have it).
func ReadAll(data []byte, schema *Schema) (*Header, []map[string]any, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, nil, ibxerrors.New(codeReadFailed, "failed to read magic bytes", err)
	}
	if gotMagic != magic {
		return nil, nil, ibxerrors.New(codeReadFailed, "not an Avro OCF file (bad magic)", nil)
	}

	meta, err := decodeNativeMap(r, &Schema{Kind: KindMap, Values: BytesSchema()})
	if err != nil {
		return nil, nil, ibxerrors.New(codeReadFailed, "failed to read header metadata", err)
	}
	metaBytes := make(map[string][]byte, len(meta))
	for k, v := range meta {
		metaBytes[k] = v.([]byte)
	}

	header := &Header{Meta: metaBytes, Codec: CodecNull}
	if c, ok := metaBytes["avro.codec"]; ok {
		header.Codec = Codec(c)
	}

	if _, err := io.ReadFull(r, header.Sync[:]); err != nil {
		return nil, nil, ibxerrors.New(codeReadFailed, "failed to read sync marker", err)
	}

	var records []map[string]any
	for {
		count, err := ReadVarint(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, ibxerrors.New(codeReadFailed, "failed to read block object count", err)
		}
		byteCount, err := ReadVarint(r)
		if err != nil {
			return nil, nil, ibxerrors.New(codeReadFailed, "failed to read block byte count", err)
		}
		block := make([]byte, byteCount)
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, nil, ibxerrors.New(codeReadFailed, "failed to read block body", err)
		}
		decompressed, err := decompressBlock(header.Codec, block)
		if err != nil {
			return nil, nil, err
		}
		blockReader := bufio.NewReader(bytes.NewReader(decompressed))
		for i := int64(0); i < count; i++ {
			v, err := decodeValue(blockReader, schema)
			if err != nil {
				return nil, nil, ibxerrors.New(codeReadFailed, "failed to decode record", err)
			}
			records = append(records, v.(map[string]any))
		}

		var sync [16]byte
		if _, err := io.ReadFull(r, sync[:]); err != nil {
			return nil, nil, ibxerrors.New(codeReadFailed, "failed to read block sync marker", err)
		}
		if sync != header.Sync {
			return nil, nil, ibxerrors.New(codeReadFailed, "sync marker mismatch", nil)
		}
	}

	return header, records, nil
}
