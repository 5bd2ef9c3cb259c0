// Package stats extracts per-file Parquet statistics through the Compute
// collaborator, turning DuckDB's parquet_metadata() row-group rows into
// one deduplicated record per data file.
package stats

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeInvalidGlob = ibxerrors.StatsCode("invalid_file_pattern")
var codeQueryFailed = ibxerrors.StatsCode("query_failed")
var codeRowFailed = ibxerrors.StatsCode("row_failed")

// globPattern is the sole defense against SQL injection into the compute
// layer: the glob string is substituted directly into the query text, so
// anything outside this character class is rejected outright.
var globPattern = regexp.MustCompile(`^[A-Za-z0-9/*._:\-]+$`)

// FileStat is one data file's extracted statistics, ready to feed the
// manifest builder.
type FileStat struct {
	FilePath        string
	FileSizeInBytes int64
	RecordCount     int64
	PartitionValues map[string]any
}

// hivePartitionPattern matches one "key=value" hive-style path segment.
var hivePartitionPattern = regexp.MustCompile(`([^/=]+)=([^/=]+)`)

// Extract runs a deduplicated-by-row-group aggregation query against
// dataGlob and returns one FileStat per matched Parquet file.
func Extract(ctx context.Context, eng compute.Compute, dataGlob string) ([]FileStat, error) {
	if !globPattern.MatchString(dataGlob) {
		return nil, ibxerrors.Newf(codeInvalidGlob, "file pattern %q contains characters outside the allowed set", dataGlob)
	}

	rows, err := eng.Query(ctx, buildStatsQuery(dataGlob))
	if err != nil {
		return nil, ibxerrors.New(codeQueryFailed, "parquet stats query failed", err).AddContext("glob", dataGlob)
	}

	out := make([]FileStat, 0, len(rows))
	for _, r := range rows {
		fs, err := rowToFileStat(r)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

// buildStatsQuery deduplicates parquet_metadata()'s per-column, per-row-group
// rows down to one (file, row_group) pair before summing bytes and rows,
// per spec's row-group-level dedup requirement.
func buildStatsQuery(dataGlob string) string {
	escaped := strings.ReplaceAll(dataGlob, "'", "''")
	return fmt.Sprintf(`
SELECT file_name AS file_path,
       SUM(row_group_bytes) AS file_size_in_bytes,
       SUM(row_group_num_rows) AS record_count
FROM (
    SELECT DISTINCT file_name, row_group_id, row_group_bytes, row_group_num_rows
    FROM parquet_metadata('%s')
) dedup
GROUP BY file_name`, escaped)
}

func rowToFileStat(r compute.Row) (FileStat, error) {
	path, ok := r["file_path"].(string)
	if !ok {
		return FileStat{}, ibxerrors.New(codeRowFailed, "row missing file_path column", nil)
	}

	size, err := asInt64(r["file_size_in_bytes"])
	if err != nil {
		return FileStat{}, ibxerrors.AddContext(err, "file_path", path)
	}
	count, err := asInt64(r["record_count"])
	if err != nil {
		return FileStat{}, ibxerrors.AddContext(err, "file_path", path)
	}

	return FileStat{
		FilePath:        path,
		FileSizeInBytes: size,
		RecordCount:     count,
		PartitionValues: parseHivePartitions(path),
	}, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case nil:
		return 0, nil
	}
	return 0, ibxerrors.Newf(codeRowFailed, "expected integer column, got %T", v)
}

// parseHivePartitions pulls every "key=value" path segment out of path,
// e.g. "data/year=2024/month=01/day=15/part-0.parquet" yields
// {"year":"2024","month":"01","day":"15"}.
func parseHivePartitions(path string) map[string]any {
	matches := hivePartitionPattern.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make(map[string]any, len(matches))
	for _, m := range matches {
		out[m[1]] = m[2]
	}
	return out
}
