package snapshot

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear6io/iceberg-writer/iceberg/avro"
	"github.com/gear6io/iceberg-writer/iceberg/compute"
	"github.com/gear6io/iceberg-writer/iceberg/manifestlist"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
	"github.com/gear6io/iceberg-writer/iceberg/storage/memory"
)

type fakeCompute struct {
	rows []compute.Row
}

func (f *fakeCompute) Query(_ context.Context, _ string) ([]compute.Row, error) {
	return f.rows, nil
}

func (f *fakeCompute) Execute(_ context.Context, _ string) (sql.Result, error) { return nil, nil }

func (f *fakeCompute) WriteDataFiles(_ context.Context, _, _ string, _ compute.WriteOptions) error {
	return nil
}

func daySpec() partition.Spec {
	return partition.Spec{
		SpecID: 0,
		Fields: []partition.Field{
			{Name: "ingest_day", Transform: "day", SourceID: 4, FieldID: 1000},
		},
	}
}

func TestCreateUploadsManifestAndManifestListAndReturnsSummary(t *testing.T) {
	st := memory.New()
	eng := &fakeCompute{rows: []compute.Row{
		{"file_path": "data/year=2024/month=01/day=15/part-0.parquet", "file_size_in_bytes": int64(2048), "record_count": int64(50)},
	}}

	snap, err := Create(context.Background(), st, eng, "s3://bucket/table", "data/*.parquet", Options{
		PartitionSpec:  daySpec(),
		SequenceNumber: 3,
		Operation:      "append",
		SchemaID:       0,
	})
	require.NoError(t, err)

	require.Equal(t, "append", snap.Summary["operation"])
	require.Equal(t, "1", snap.Summary["added-data-files"])
	require.Equal(t, "50", snap.Summary["added-records"])
	require.Equal(t, "2048", snap.Summary["added-files-size"])
	require.NotEmpty(t, snap.ManifestList)
	require.Contains(t, snap.ManifestList, "s3://bucket/table/metadata/snap-")

	exists, err := st.Exists(context.Background(), snap.ManifestList)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCreateWithEmptyStatsYieldsZeroAddedSnapshot(t *testing.T) {
	st := memory.New()
	eng := &fakeCompute{rows: nil}

	snap, err := Create(context.Background(), st, eng, "s3://bucket/table", "data/*.parquet", Options{
		PartitionSpec: daySpec(),
		Operation:     "append",
	})
	require.NoError(t, err)
	require.Equal(t, "0", snap.Summary["added-data-files"])
	require.Equal(t, "0", snap.Summary["added-records"])
}

func TestCreateGeneratesSnapshotIDWhenUnset(t *testing.T) {
	st := memory.New()
	eng := &fakeCompute{}

	snap, err := Create(context.Background(), st, eng, "s3://bucket/table", "data/*.parquet", Options{
		PartitionSpec: daySpec(),
	})
	require.NoError(t, err)
	require.NotZero(t, snap.SnapshotID)
}

func TestCreateHonorsExplicitSnapshotIDAndSourceFile(t *testing.T) {
	st := memory.New()
	eng := &fakeCompute{}

	snap, err := Create(context.Background(), st, eng, "s3://bucket/table", "data/*.parquet", Options{
		PartitionSpec: daySpec(),
		SnapshotID:    42,
		SourceFile:    "source.parquet",
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), snap.SnapshotID)
	require.Equal(t, "source.parquet", snap.Summary["source-file"])
}

func TestUploadedManifestListDecodesWithCorrectSequenceNumber(t *testing.T) {
	st := memory.New()
	eng := &fakeCompute{rows: []compute.Row{
		{"file_path": "data/part-0.parquet", "file_size_in_bytes": int64(10), "record_count": int64(1)},
	}}

	snap, err := Create(context.Background(), st, eng, "tbl", "data/*.parquet", Options{
		PartitionSpec:  partition.Spec{},
		SequenceNumber: 7,
		SnapshotID:     9,
	})
	require.NoError(t, err)

	data, err := st.Download(context.Background(), snap.ManifestList)
	require.NoError(t, err)

	_, records, err := avro.ReadAll(data, manifestlist.FileSchema())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(7), records[0]["sequence_number"])
	require.Equal(t, int64(9), records[0]["added_snapshot_id"])
}
