// Package manifestlist builds Iceberg v2 manifest-list files: one Avro
// OCF per snapshot listing the manifests it references, with per-manifest
// partition summaries.
package manifestlist

import (
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/gear6io/iceberg-writer/iceberg/avro"
)

var codeBuildFailed = ibxerrors.MlistCode("build_failed")

// dataManifestContent is the only manifest content kind this writer
// produces; delete manifests (content=1) are out of scope.
const dataManifestContent = 0

// FieldSummary is one partition column's aggregate null/nan presence and
// bounds across every entry in the manifest being described.
type FieldSummary struct {
	ContainsNull bool
	ContainsNaN  *bool // nil when unknown
	LowerBound   []byte
	UpperBound   []byte
}

// ManifestFileStat is the per-manifest input to Build.
type ManifestFileStat struct {
	ManifestPath           string
	ManifestLength         int64
	PartitionSpecID        int
	AddedSnapshotID        int64
	AddedDataFilesCount    int
	ExistingDataFilesCount int
	DeletedDataFilesCount  int
	AddedRowsCount         int64
	ExistingRowsCount      int64
	DeletedRowsCount       int64
	Partitions             []FieldSummary
	KeyMetadata            []byte
}

// Build renders manifests as a manifest_file Avro OCF for the given
// snapshot. Both sequence_number and min_sequence_number on every entry
// equal sequenceNumber (spec.md §4.6: this writer produces exactly one
// manifest per snapshot commit, so there is no older min to track).
func Build(manifests []ManifestFileStat, snapshotID, sequenceNumber int64) ([]byte, error) {
	schema := FileSchema()

	w, err := avro.NewWriter(schema, avro.CodecNull, map[string][]byte{
		"format-version": []byte("2"),
	})
	if err != nil {
		return nil, ibxerrors.New(codeBuildFailed, "failed to create manifest-list writer", err)
	}

	for i, m := range manifests {
		rec := manifestFileRecord(m, sequenceNumber)
		if err := w.Append(rec); err != nil {
			return nil, ibxerrors.Newf(codeBuildFailed, "manifest %d (%s): append failed", i, m.ManifestPath)
		}
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, ibxerrors.New(codeBuildFailed, "failed to serialize manifest-list", err)
	}
	return out, nil
}

func manifestFileRecord(m ManifestFileStat, sequenceNumber int64) map[string]any {
	return map[string]any{
		"manifest_path":             m.ManifestPath,
		"manifest_length":           m.ManifestLength,
		"partition_spec_id":         m.PartitionSpecID,
		"content":                   dataManifestContent,
		"sequence_number":           sequenceNumber,
		"min_sequence_number":       sequenceNumber,
		"added_snapshot_id":         m.AddedSnapshotID,
		"added_data_files_count":    m.AddedDataFilesCount,
		"existing_data_files_count": m.ExistingDataFilesCount,
		"deleted_data_files_count":  m.DeletedDataFilesCount,
		"partitions":                fieldSummariesToAny(m.Partitions),
		"added_rows_count":          m.AddedRowsCount,
		"existing_rows_count":       m.ExistingRowsCount,
		"deleted_rows_count":        m.DeletedRowsCount,
		"key_metadata":              byteSliceOrNil(m.KeyMetadata),
	}
}

func fieldSummariesToAny(summaries []FieldSummary) any {
	if len(summaries) == 0 {
		return nil
	}
	out := make([]any, len(summaries))
	for i, s := range summaries {
		var containsNaN any
		if s.ContainsNaN != nil {
			containsNaN = *s.ContainsNaN
		}
		out[i] = map[string]any{
			"contains_null": s.ContainsNull,
			"contains_nan":  containsNaN,
			"lower_bound":   byteSliceOrNil(s.LowerBound),
			"upper_bound":   byteSliceOrNil(s.UpperBound),
		}
	}
	return out
}

func byteSliceOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
