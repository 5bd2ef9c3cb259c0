package stats

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
)

type fakeCompute struct {
	lastQuery string
	rows      []compute.Row
	err       error
}

func (f *fakeCompute) Query(_ context.Context, query string) ([]compute.Row, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeCompute) Execute(_ context.Context, _ string) (sql.Result, error) {
	return nil, nil
}

func (f *fakeCompute) WriteDataFiles(_ context.Context, _, _ string, _ compute.WriteOptions) error {
	return nil
}

var _ compute.Compute = (*fakeCompute)(nil)

func TestExtractRejectsGlobWithInjectionCharacters(t *testing.T) {
	_, err := Extract(context.Background(), &fakeCompute{}, "data/*.parquet'; DROP TABLE x; --")
	require.Error(t, err)
}

func TestExtractAcceptsAllowedGlobCharacters(t *testing.T) {
	eng := &fakeCompute{rows: []compute.Row{}}
	_, err := Extract(context.Background(), eng, "s3://bucket/data/2024_01-15/*.parquet")
	require.NoError(t, err)
	require.Contains(t, eng.lastQuery, "parquet_metadata('s3://bucket/data/2024_01-15/*.parquet')")
}

func TestExtractDerivesHivePartitionValuesFromPath(t *testing.T) {
	eng := &fakeCompute{rows: []compute.Row{
		{"file_path": "data/year=2024/month=01/day=15/part-0.parquet", "file_size_in_bytes": int64(1024), "record_count": int64(100)},
	}}

	got, err := Extract(context.Background(), eng, "data/**/*.parquet")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(1024), got[0].FileSizeInBytes)
	require.Equal(t, int64(100), got[0].RecordCount)
	require.Equal(t, map[string]any{"year": "2024", "month": "01", "day": "15"}, got[0].PartitionValues)
}

func TestExtractEmptyResultIsLegal(t *testing.T) {
	got, err := Extract(context.Background(), &fakeCompute{rows: nil}, "data/*.parquet")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtractPropagatesQueryError(t *testing.T) {
	_, err := Extract(context.Background(), &fakeCompute{err: sql.ErrConnDone}, "data/*.parquet")
	require.Error(t, err)
}

func TestExtractWithoutHiveSegmentsHasNilPartitionValues(t *testing.T) {
	eng := &fakeCompute{rows: []compute.Row{
		{"file_path": "data/flat/part-0.parquet", "file_size_in_bytes": int64(1), "record_count": int64(1)},
	}}
	got, err := Extract(context.Background(), eng, "data/flat/*.parquet")
	require.NoError(t, err)
	require.Nil(t, got[0].PartitionValues)
}
