package manifest

import (
	"github.com/gear6io/iceberg-writer/iceberg/avro"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
)

// logicalMap builds one of the six "map" fields the manifest-entry
// data_file record carries, wrapped nullable: array<record{key,value}>
// with logicalType "map", field-id and element-id both set to fieldID
// per the Iceberg spec's field-id table (spec.md §4.5).
func logicalMap(name string, fieldID, keyID, valueID int, valueType *avro.Schema) avro.Field {
	rec := avro.MapEntryRecord(name,
		avro.Field{Name: "key", Type: avro.IntSchema(), FieldID: keyID},
		avro.Field{Name: "value", Type: valueType, FieldID: valueID},
	)
	return avro.Field{
		Name:    name,
		Type:    avro.NullableUnion(avro.LogicalMap(rec, fieldID)),
		FieldID: fieldID,
	}
}

// partitionRecordSchema builds the data_file.partition sub-record ("r102")
// for the given partition spec: one field per partition column, typed int
// or string per spec.md §4.5, field-id equal to the partition field's own
// assigned id.
func partitionRecordSchema(spec partition.Spec) *avro.Schema {
	fields := make([]avro.Field, 0, len(spec.Fields))
	for _, pf := range spec.Fields {
		var t *avro.Schema
		if partition.AvroKindForTransform(pf.Transform) == "int" {
			t = avro.IntSchema()
		} else {
			t = avro.StringSchema()
		}
		fields = append(fields, avro.Field{Name: pf.Name, Type: t, FieldID: pf.FieldID})
	}
	return avro.RecordSchema("r102", fields...)
}

// EntrySchema builds the manifest_entry Avro record schema for the given
// partition spec, with the exact Iceberg v2 field-id annotations
// (spec.md §4.5; mis-numbered ids break DuckDB/PyIceberg).
func EntrySchema(spec partition.Spec) *avro.Schema {
	dataFile := avro.RecordSchema("r2",
		avro.Field{Name: "content", Type: avro.IntSchema(), FieldID: 134},
		avro.Field{Name: "file_path", Type: avro.StringSchema(), FieldID: 100},
		avro.Field{Name: "file_format", Type: avro.StringSchema(), FieldID: 101},
		avro.Field{Name: "partition", Type: partitionRecordSchema(spec), FieldID: 102},
		avro.Field{Name: "record_count", Type: avro.LongSchema(), FieldID: 103},
		avro.Field{Name: "file_size_in_bytes", Type: avro.LongSchema(), FieldID: 104},
		logicalMap("column_sizes", 108, 117, 118, avro.LongSchema()),
		logicalMap("value_counts", 109, 119, 120, avro.LongSchema()),
		logicalMap("null_value_counts", 110, 121, 122, avro.LongSchema()),
		logicalMap("nan_value_counts", 137, 138, 139, avro.LongSchema()),
		logicalMap("lower_bounds", 125, 126, 127, avro.BytesSchema()),
		logicalMap("upper_bounds", 128, 129, 130, avro.BytesSchema()),
		avro.Field{Name: "key_metadata", Type: avro.NullableUnion(avro.BytesSchema()), FieldID: 131},
		avro.Field{Name: "split_offsets", Type: avro.NullableUnion(avro.ArraySchema(avro.LongSchema())), FieldID: 132},
		avro.Field{Name: "equality_ids", Type: avro.NullableUnion(avro.ArraySchema(avro.IntSchema())), FieldID: 135},
		avro.Field{Name: "sort_order_id", Type: avro.NullableUnion(avro.IntSchema()), FieldID: 140},
	)

	return avro.RecordSchema("manifest_entry",
		avro.Field{Name: "status", Type: avro.IntSchema(), FieldID: 0},
		avro.Field{Name: "snapshot_id", Type: avro.LongSchema(), FieldID: 1},
		avro.Field{Name: "data_file", Type: dataFile, FieldID: 2},
		avro.Field{Name: "sequence_number", Type: avro.NullableUnion(avro.LongSchema()), FieldID: 3},
		avro.Field{Name: "file_sequence_number", Type: avro.NullableUnion(avro.LongSchema()), FieldID: 4},
	)
}
