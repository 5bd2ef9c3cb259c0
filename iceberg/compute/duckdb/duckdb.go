// Package duckdb implements the Compute collaborator against an
// in-process DuckDB connection, grounded on the teacher's deprecated SQL
// engine: the same memory-limit and extension-loading dance, trimmed
// down to the three operations this writer actually needs.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeConnectFailed = ibxerrors.ComputeCode("connect_failed")
var codeQueryFailed = ibxerrors.ComputeCode("query_failed")
var codeExecFailed = ibxerrors.ComputeCode("exec_failed")
var codeWriteFailed = ibxerrors.ComputeCode("write_failed")
var codeInvalidOptions = ibxerrors.ComputeCode("invalid_options")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config controls the DuckDB connection this engine opens.
type Config struct {
	// MaxMemoryMB bounds DuckDB's memory_limit setting. Zero leaves
	// DuckDB's own default in place.
	MaxMemoryMB int
}

// Engine is a DuckDB-backed compute.Compute implementation.
type Engine struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New opens an in-process DuckDB database, installs the extensions this
// writer depends on (httpfs for remote Parquet, parquet for local), and
// applies cfg.
func New(cfg Config, logger zerolog.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, ibxerrors.New(codeConnectFailed, "failed to open duckdb connection", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ibxerrors.New(codeConnectFailed, "failed to ping duckdb", err)
	}

	e := &Engine{db: db, logger: logger.With().Str("component", "duckdb-compute").Logger()}

	if err := e.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

var _ compute.Compute = (*Engine)(nil)

func (e *Engine) initialize(cfg Config) error {
	if cfg.MaxMemoryMB > 0 {
		if _, err := e.db.Exec(fmt.Sprintf("SET memory_limit = '%dMB'", cfg.MaxMemoryMB)); err != nil {
			e.logger.Warn().Err(err).Msg("failed to set memory_limit")
		}
	}

	for _, ext := range []string{"httpfs", "parquet"} {
		if _, err := e.db.Exec("INSTALL " + ext); err != nil {
			e.logger.Info().Err(err).Str("extension", ext).Msg("install failed or already installed")
		}
		if _, err := e.db.Exec("LOAD " + ext); err != nil {
			return ibxerrors.Newf(codeConnectFailed, "failed to load required %s extension", ext)
		}
	}
	return nil
}

// Close releases the underlying DuckDB connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

func (e *Engine) Query(ctx context.Context, query string) ([]compute.Row, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, ibxerrors.New(codeQueryFailed, "query failed", err).AddContext("query", query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, ibxerrors.New(codeQueryFailed, "failed to read columns", err)
	}

	var out []compute.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, ibxerrors.New(codeQueryFailed, "failed to scan row", err)
		}

		row := make(compute.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ibxerrors.New(codeQueryFailed, "error iterating rows", err)
	}
	return out, nil
}

func (e *Engine) Execute(ctx context.Context, query string) (sql.Result, error) {
	res, err := e.db.ExecContext(ctx, query)
	if err != nil {
		return nil, ibxerrors.New(codeExecFailed, "execute failed", err).AddContext("query", query)
	}
	return res, nil
}

// WriteDataFiles runs sourceSQL and copies its result to Parquet files
// under destURL using DuckDB's COPY ... TO ... (FORMAT PARQUET).
func (e *Engine) WriteDataFiles(ctx context.Context, sourceSQL, destURL string, opts compute.WriteOptions) error {
	for _, col := range opts.PartitionBy {
		if !identifierPattern.MatchString(col) {
			return ibxerrors.Newf(codeInvalidOptions, "invalid partition column name %q", col)
		}
	}

	copyOptions := []string{"FORMAT PARQUET"}
	if len(opts.PartitionBy) > 0 {
		copyOptions = append(copyOptions, fmt.Sprintf("PARTITION_BY (%s)", strings.Join(opts.PartitionBy, ", ")))
	}
	if opts.TargetFileSizeBytes > 0 {
		copyOptions = append(copyOptions, "ROW_GROUP_SIZE_BYTES "+strconv.FormatInt(opts.TargetFileSizeBytes, 10))
	}

	stmt := fmt.Sprintf("COPY (%s) TO '%s' (%s)", sourceSQL, escapeSingleQuotes(destURL), strings.Join(copyOptions, ", "))

	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return ibxerrors.New(codeWriteFailed, "failed to write data files", err).AddContext("dest", destURL)
	}
	return nil
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
