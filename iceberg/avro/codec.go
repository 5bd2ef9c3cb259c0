package avro

import (
	"bytes"
	"compress/flate"
	"io"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

// Codec names one of the OCF block compression codecs named in the Avro
// 1.11 spec. This encoder only ever needs "null" for Iceberg manifests but
// the writer schema registry historically anticipated codec negotiation,
// so "deflate" is implemented too.
type Codec string

const (
	CodecNull    Codec = "null"
	CodecDeflate Codec = "deflate"
	CodecSnappy  Codec = "snappy"
)

var codeUnsupportedCodec = ibxerrors.AvroCode("unsupported_codec")

func compressBlock(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNull, "":
		return data, nil
	case CodecDeflate:
		var buf bytes.Buffer
		w, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, ibxerrors.New(codeUnsupportedCodec, "failed to create deflate writer", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, ibxerrors.New(codeUnsupportedCodec, "failed to deflate block", err)
		}
		if err := w.Close(); err != nil {
			return nil, ibxerrors.New(codeUnsupportedCodec, "failed to close deflate writer", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, ibxerrors.Newf(codeUnsupportedCodec, "codec %q is not supported by this writer", codec)
	}
}

func decompressBlock(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case CodecNull, "":
		return data, nil
	case CodecDeflate:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, ibxerrors.New(codeUnsupportedCodec, "failed to inflate block", err)
		}
		return out, nil
	default:
		return nil, ibxerrors.Newf(codeUnsupportedCodec, "codec %q is not supported by this reader", codec)
	}
}
