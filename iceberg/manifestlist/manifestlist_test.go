package manifestlist

import (
	"testing"

	"github.com/gear6io/iceberg-writer/iceberg/avro"
	"github.com/stretchr/testify/require"
)

func TestFileSchemaDeclaresExactFieldIDs(t *testing.T) {
	j := FileSchema().JSON()
	for _, want := range []string{
		`"field-id":500`, // manifest_path
		`"field-id":501`, // manifest_length
		`"field-id":502`, // partition_spec_id
		`"field-id":517`, // content
		`"field-id":503`, // added_snapshot_id
		`"field-id":504`,
		`"field-id":505`,
		`"field-id":506`,
		`"field-id":507`, // partitions
		`"element-id":508`,
		`"field-id":509`, // contains_null
		`"field-id":518`, // contains_nan
		`"field-id":510`, // lower_bound
		`"field-id":511`, // upper_bound
		`"field-id":512`,
		`"field-id":513`,
		`"field-id":514`,
		`"field-id":515`, // sequence_number
		`"field-id":516`, // min_sequence_number
		`"field-id":519`, // key_metadata
	} {
		require.Contains(t, j, want, "missing %q", want)
	}
}

func TestBuildRoundTripsSequenceNumbers(t *testing.T) {
	manifests := []ManifestFileStat{
		{
			ManifestPath:           "s3://bucket/table/metadata/m1.avro",
			ManifestLength:         1024,
			AddedSnapshotID:        7,
			AddedDataFilesCount:    3,
			AddedRowsCount:         100,
			Partitions: []FieldSummary{
				{ContainsNull: false, LowerBound: []byte{0x01}, UpperBound: []byte{0x02}},
			},
		},
	}

	out, err := Build(manifests, 7, 5)
	require.NoError(t, err)

	_, records, err := avro.ReadAll(out, FileSchema())
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	require.Equal(t, int64(5), r["sequence_number"])
	require.Equal(t, int64(5), r["min_sequence_number"])
	require.Equal(t, int32(0), r["content"])
	require.Equal(t, "s3://bucket/table/metadata/m1.avro", r["manifest_path"])

	partitions := r["partitions"].([]any)
	require.Len(t, partitions, 1)
	summary := partitions[0].(map[string]any)
	require.Equal(t, false, summary["contains_null"])
	require.Equal(t, []byte{0x01}, summary["lower_bound"])
}

func TestBuildWithNoManifestsProducesEmptyOCF(t *testing.T) {
	out, err := Build(nil, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{'O', 'b', 'j', 1}, out[:4])
}
