package duckdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
)

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Engine{db: db, logger: zerolog.Nop()}, mock
}

func TestQueryScansRowsIntoMapsByColumnName(t *testing.T) {
	e, mock := newMockEngine(t)

	rows := sqlmock.NewRows([]string{"file_path", "record_count"}).
		AddRow("data/a.parquet", int64(10)).
		AddRow("data/b.parquet", int64(20))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	got, err := e.Query(context.Background(), "SELECT file_path, record_count FROM parquet_metadata('data/*.parquet')")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "data/a.parquet", got[0]["file_path"])
	require.Equal(t, int64(20), got[1]["record_count"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPropagatesDriverError(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectQuery("SELECT").WillReturnError(sqlmock.ErrCancelled)

	_, err := e.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
}

func TestExecuteRunsStatementAndReturnsResult(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectExec("DELETE FROM").WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := e.Execute(context.Background(), "DELETE FROM t WHERE x = 1")
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
}

func TestWriteDataFilesRejectsUnsafePartitionColumnName(t *testing.T) {
	e, _ := newMockEngine(t)

	err := e.WriteDataFiles(context.Background(), "SELECT 1", "s3://bucket/table/data", compute.WriteOptions{
		PartitionBy: []string{"year; DROP TABLE x"},
	})
	require.Error(t, err)
}

func TestWriteDataFilesBuildsCopyStatementWithPartitionAndSize(t *testing.T) {
	e, mock := newMockEngine(t)
	mock.ExpectExec("COPY \\(SELECT \\* FROM src\\) TO 's3://bucket/t/data' \\(FORMAT PARQUET, PARTITION_BY \\(year, month\\), ROW_GROUP_SIZE_BYTES 1048576\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := e.WriteDataFiles(context.Background(), "SELECT * FROM src", "s3://bucket/t/data", compute.WriteOptions{
		PartitionBy:         []string{"year", "month"},
		TargetFileSizeBytes: 1048576,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

var _ compute.Compute = (*Engine)(nil)
