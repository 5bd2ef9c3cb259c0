package manifestlist

import "github.com/gear6io/iceberg-writer/iceberg/avro"

// fieldSummarySchema builds the field_summary record nested inside
// manifest_file.partitions (spec.md §4.6): per-partition-field null/nan
// presence and bounds, gathered across every manifest entry in the
// manifest this manifest-file record describes.
func fieldSummarySchema() *avro.Schema {
	return avro.RecordSchema("field_summary",
		avro.Field{Name: "contains_null", Type: avro.BooleanSchema(), FieldID: 509},
		avro.Field{Name: "contains_nan", Type: avro.NullableUnion(avro.BooleanSchema()), FieldID: 518},
		avro.Field{Name: "lower_bound", Type: avro.NullableUnion(avro.BytesSchema()), FieldID: 510},
		avro.Field{Name: "upper_bound", Type: avro.NullableUnion(avro.BytesSchema()), FieldID: 511},
	)
}

// FileSchema builds the manifest_file Avro record schema with the exact
// Iceberg v2 field-id annotations (spec.md §4.6).
func FileSchema() *avro.Schema {
	partitions := &avro.Schema{
		Kind:      avro.KindArray,
		Items:     fieldSummarySchema(),
		ElementID: 508,
	}

	return avro.RecordSchema("manifest_file",
		avro.Field{Name: "manifest_path", Type: avro.StringSchema(), FieldID: 500},
		avro.Field{Name: "manifest_length", Type: avro.LongSchema(), FieldID: 501},
		avro.Field{Name: "partition_spec_id", Type: avro.IntSchema(), FieldID: 502},
		avro.Field{Name: "content", Type: avro.IntSchema(), FieldID: 517},
		avro.Field{Name: "sequence_number", Type: avro.LongSchema(), FieldID: 515},
		avro.Field{Name: "min_sequence_number", Type: avro.LongSchema(), FieldID: 516},
		avro.Field{Name: "added_snapshot_id", Type: avro.LongSchema(), FieldID: 503},
		avro.Field{Name: "added_data_files_count", Type: avro.IntSchema(), FieldID: 504},
		avro.Field{Name: "existing_data_files_count", Type: avro.IntSchema(), FieldID: 505},
		avro.Field{Name: "deleted_data_files_count", Type: avro.IntSchema(), FieldID: 506},
		avro.Field{Name: "partitions", Type: avro.NullableUnion(partitions), FieldID: 507},
		avro.Field{Name: "added_rows_count", Type: avro.LongSchema(), FieldID: 512},
		avro.Field{Name: "existing_rows_count", Type: avro.LongSchema(), FieldID: 513},
		avro.Field{Name: "deleted_rows_count", Type: avro.LongSchema(), FieldID: 514},
		avro.Field{Name: "key_metadata", Type: avro.NullableUnion(avro.BytesSchema()), FieldID: 519},
	)
}
