// Package snapshot assembles one Iceberg snapshot: extract Parquet stats,
// build and upload a manifest, build and upload a manifest-list, and
// return the snapshot record for the metadata state machine to splice
// in. Every step is a direct blocking call against the storage/compute
// collaborators — no goroutines, no worker pool, matching this writer's
// synchronous single-writer model.
package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
	"github.com/gear6io/iceberg-writer/iceberg/manifest"
	"github.com/gear6io/iceberg-writer/iceberg/manifestlist"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
	"github.com/gear6io/iceberg-writer/iceberg/stats"
	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeAssembleFailed = ibxerrors.SnapshotCode("assemble_failed")

// Options carries everything Create needs beyond the table path and data
// glob: the partition spec the manifest's partition sub-records follow,
// the sequence number this snapshot will carry, and bookkeeping fields
// that land in the returned record's summary.
type Options struct {
	PartitionSpec  partition.Spec
	SequenceNumber int64
	Operation      string
	SourceFile     string // optional; included in summary when non-empty
	SnapshotID     int64  // optional; 0 generates one from the millisecond clock
	SchemaID       int
	SchemaJSON     []byte // optional
}

// Snapshot is the record the metadata state machine splices into
// TableMetadata.Snapshots and advances current-snapshot-id to.
type Snapshot struct {
	SnapshotID   int64             `json:"snapshot-id"`
	TimestampMs  int64             `json:"timestamp-ms"`
	ManifestList string            `json:"manifest-list"`
	Summary      map[string]string `json:"summary"`
	SchemaID     int               `json:"schema-id"`
}

// Create runs the six-step snapshot assembly: stats extraction, manifest
// build+upload, manifest-list build+upload, and the resulting record. An
// empty stats result is not an error — it yields a snapshot with zero
// added files.
func Create(ctx context.Context, st storage.Storage, eng compute.Compute, tablePath, dataGlob string, opts Options) (Snapshot, error) {
	snapshotID := opts.SnapshotID
	if snapshotID == 0 {
		snapshotID = time.Now().UnixMilli()
	}

	fileStats, err := stats.Extract(ctx, eng, dataGlob)
	if err != nil {
		return Snapshot{}, ibxerrors.New(codeAssembleFailed, "failed to extract parquet stats", err).AddContext("glob", dataGlob)
	}

	entries := make([]manifest.FileStat, len(fileStats))
	var addedRows, addedSize int64
	for i, fs := range fileStats {
		entries[i] = manifest.FileStat{
			FilePath:        fs.FilePath,
			FileFormat:      "PARQUET",
			PartitionValues: fs.PartitionValues,
			RecordCount:     fs.RecordCount,
			FileSizeInBytes: fs.FileSizeInBytes,
		}
		addedRows += fs.RecordCount
		addedSize += fs.FileSizeInBytes
	}

	manifestBytes, err := manifest.Build(entries, manifest.BuildOptions{
		SnapshotID:    snapshotID,
		PartitionSpec: opts.PartitionSpec,
		SchemaID:      opts.SchemaID,
		SchemaJSON:    opts.SchemaJSON,
	})
	if err != nil {
		return Snapshot{}, ibxerrors.New(codeAssembleFailed, "failed to build manifest", err)
	}

	manifestPath := fmt.Sprintf("%s/metadata/%s.avro", tablePath, uuid.NewString())
	if err := st.Upload(ctx, manifestPath, manifestBytes, "application/avro"); err != nil {
		return Snapshot{}, ibxerrors.New(codeAssembleFailed, "failed to upload manifest", err).AddContext("path", manifestPath)
	}

	manifestListBytes, err := manifestlist.Build([]manifestlist.ManifestFileStat{
		{
			ManifestPath:        manifestPath,
			ManifestLength:      int64(len(manifestBytes)),
			PartitionSpecID:     opts.PartitionSpec.SpecID,
			AddedSnapshotID:     snapshotID,
			AddedDataFilesCount: len(entries),
			AddedRowsCount:      addedRows,
		},
	}, snapshotID, opts.SequenceNumber)
	if err != nil {
		return Snapshot{}, ibxerrors.New(codeAssembleFailed, "failed to build manifest-list", err)
	}

	manifestListPath := fmt.Sprintf("%s/metadata/snap-%d-%s.avro", tablePath, snapshotID, uuid.NewString())
	if err := st.Upload(ctx, manifestListPath, manifestListBytes, "application/avro"); err != nil {
		return Snapshot{}, ibxerrors.New(codeAssembleFailed, "failed to upload manifest-list", err).AddContext("path", manifestListPath)
	}

	summary := map[string]string{
		"operation":        opts.Operation,
		"added-data-files": strconv.Itoa(len(entries)),
		"added-records":    strconv.FormatInt(addedRows, 10),
		"added-files-size": strconv.FormatInt(addedSize, 10),
	}
	if opts.SourceFile != "" {
		summary["source-file"] = opts.SourceFile
	}

	return Snapshot{
		SnapshotID:   snapshotID,
		TimestampMs:  time.Now().UnixMilli(),
		ManifestList: manifestListPath,
		Summary:      summary,
		SchemaID:     opts.SchemaID,
	}, nil
}
