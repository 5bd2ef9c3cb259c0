// Package compute declares the Compute collaborator contract: the SQL
// engine that actually reads and writes Parquet data. This package's
// writer never executes SQL of its own construction except the
// regex-validated file-glob queries the stats extractor issues.
package compute

import (
	"context"
	"database/sql"
)

// Row is one result row of a Query call, keyed by column name.
type Row = map[string]any

// WriteOptions controls how WriteDataFiles lays out the Parquet files it
// produces.
type WriteOptions struct {
	// PartitionBy names the columns to hive-partition output by, in order.
	// Empty means unpartitioned.
	PartitionBy []string
	// TargetFileSizeBytes is an advisory split hint; engines that can't
	// honor it exactly should round up rather than silently ignore it.
	TargetFileSizeBytes int64
}

// Compute is the abstract SQL execution collaborator.
type Compute interface {
	// Query runs sql and returns every result row.
	Query(ctx context.Context, query string) ([]Row, error)

	// Execute runs sql for its side effects (DDL, DML without a result
	// set) and returns the driver's sql.Result.
	Execute(ctx context.Context, query string) (sql.Result, error)

	// WriteDataFiles executes sourceSQL and writes its result as one or
	// more Parquet files under destURL.
	WriteDataFiles(ctx context.Context, sourceSQL, destURL string, opts WriteOptions) error
}
