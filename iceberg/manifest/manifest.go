// Package manifest builds Iceberg v2 manifest files: one Avro OCF per
// snapshot listing the data files it adds, with the exact field-id
// annotations DuckDB and PyIceberg require to read them.
package manifest

import (
	"encoding/json"
	"sort"
	"strconv"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
	"github.com/gear6io/iceberg-writer/iceberg/avro"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
)

var codeBuildFailed = ibxerrors.ManifestCode("build_failed")

// content codes for data_file.content / manifest_entry.content; only
// dataContent is produced today, the others are reserved per spec.md §9.
const (
	dataContent = 0
)

// FileStat is the per-data-file input to Build: the physical facts about
// one Parquet file plus the column statistics the stats extractor
// collected for it.
type FileStat struct {
	FilePath        string
	FileFormat      string // defaults to "PARQUET" when empty
	PartitionValues map[string]any
	RecordCount     int64
	FileSizeInBytes int64
	ColumnSizes     map[int]int64
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NanValueCounts  map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte
	KeyMetadata     []byte
	SplitOffsets    []int64
	EqualityIDs     []int32
	SortOrderID     int
}

// BuildOptions carries the context a manifest shares with every entry it
// holds: which snapshot it belongs to, the partition spec its partition
// sub-records follow, and the schema-id/schema to stamp into the OCF
// header for readers that want it without a catalog round-trip.
type BuildOptions struct {
	SnapshotID    int64
	PartitionSpec partition.Spec
	SchemaID      int
	SchemaJSON    []byte // optional; spec.md §4.5 "when provided"
}

// Build renders entries as a manifest_entry Avro OCF. Every entry gets
// status=1 (ADDED); sequence_number and file_sequence_number are left
// null, inherited by readers from the enclosing manifest-list entry.
func Build(entries []FileStat, opts BuildOptions) ([]byte, error) {
	entrySchema := EntrySchema(opts.PartitionSpec)

	meta := map[string][]byte{
		"format-version":    []byte("2"),
		"partition-spec-id": []byte(strconv.Itoa(opts.PartitionSpec.SpecID)),
		"partition-spec":    partitionSpecJSON(opts.PartitionSpec),
		"schema-id":         []byte(strconv.Itoa(opts.SchemaID)),
	}
	if len(opts.SchemaJSON) > 0 {
		meta["schema"] = opts.SchemaJSON
	}

	w, err := avro.NewWriter(entrySchema, avro.CodecNull, meta)
	if err != nil {
		return nil, ibxerrors.New(codeBuildFailed, "failed to create manifest writer", err)
	}

	for i, e := range entries {
		rec, err := entryRecord(e, opts)
		if err != nil {
			return nil, ibxerrors.Newf(codeBuildFailed, "entry %d (%s): %v", i, e.FilePath, err)
		}
		if err := w.Append(rec); err != nil {
			return nil, ibxerrors.Newf(codeBuildFailed, "entry %d (%s): append failed", i, e.FilePath)
		}
	}

	out, err := w.Bytes()
	if err != nil {
		return nil, ibxerrors.New(codeBuildFailed, "failed to serialize manifest", err)
	}
	return out, nil
}

func entryRecord(e FileStat, opts BuildOptions) (map[string]any, error) {
	partitionValues, err := derivePartitionRecord(opts.PartitionSpec, e.PartitionValues)
	if err != nil {
		return nil, err
	}

	format := e.FileFormat
	if format == "" {
		format = "PARQUET"
	}

	dataFile := map[string]any{
		"content":             dataContent,
		"file_path":           e.FilePath,
		"file_format":         format,
		"partition":           partitionValues,
		"record_count":        e.RecordCount,
		"file_size_in_bytes":  e.FileSizeInBytes,
		"column_sizes":        intInt64MapToAvroMap(e.ColumnSizes),
		"value_counts":        intInt64MapToAvroMap(e.ValueCounts),
		"null_value_counts":   intInt64MapToAvroMap(e.NullValueCounts),
		"nan_value_counts":    intInt64MapToAvroMap(e.NanValueCounts),
		"lower_bounds":        intBytesMapToAvroMap(e.LowerBounds),
		"upper_bounds":        intBytesMapToAvroMap(e.UpperBounds),
		"key_metadata":        byteSliceOrNil(e.KeyMetadata),
		"split_offsets":       int64SliceToAny(e.SplitOffsets),
		"equality_ids":        int32SliceToAny(e.EqualityIDs),
		"sort_order_id":       e.SortOrderID,
	}

	return map[string]any{
		"status":               1, // ADDED
		"snapshot_id":          opts.SnapshotID,
		"data_file":            dataFile,
		"sequence_number":      nil,
		"file_sequence_number": nil,
	}, nil
}

func intInt64MapToAvroMap(m map[int]int64) avro.Map {
	if len(m) == 0 {
		return nil
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make(avro.Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, avro.MapEntry{Key: k, Value: m[k]})
	}
	return out
}

func intBytesMapToAvroMap(m map[int][]byte) avro.Map {
	if len(m) == 0 {
		return nil
	}
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make(avro.Map, 0, len(keys))
	for _, k := range keys {
		out = append(out, avro.MapEntry{Key: k, Value: m[k]})
	}
	return out
}

func byteSliceOrNil(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func int64SliceToAny(s []int64) any {
	if len(s) == 0 {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func int32SliceToAny(s []int32) any {
	if len(s) == 0 {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

type partitionFieldJSON struct {
	Name      string `json:"name"`
	Transform string `json:"transform"`
	SourceID  int    `json:"source-id"`
	FieldID   int    `json:"field-id"`
}

// partitionSpecJSON renders the partition spec's fields array for the
// OCF header's "partition-spec" metadata key (spec.md §4.5).
func partitionSpecJSON(spec partition.Spec) []byte {
	fields := make([]partitionFieldJSON, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		fields = append(fields, partitionFieldJSON{
			Name:      f.Name,
			Transform: f.Transform,
			SourceID:  f.SourceID,
			FieldID:   f.FieldID,
		})
	}
	data, _ := json.Marshal(fields)
	return data
}
