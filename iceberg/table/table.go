// Package table is the writer's public facade: create a table, overwrite
// or register its data, and evolve its schema. Every operation is a
// blocking sequence against the storage and compute collaborators — the
// same synchronous, single-writer-per-table model the lower packages
// already assume.
package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gear6io/iceberg-writer/iceberg/compute"
	"github.com/gear6io/iceberg-writer/iceberg/metadata"
	"github.com/gear6io/iceberg-writer/iceberg/partition"
	"github.com/gear6io/iceberg-writer/iceberg/schema"
	"github.com/gear6io/iceberg-writer/iceberg/schema/evolve"
	"github.com/gear6io/iceberg-writer/iceberg/schema/validate"
	"github.com/gear6io/iceberg-writer/iceberg/snapshot"
	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var (
	codeAlreadyExists = ibxerrors.TableCode("already_exists")
	codeFacadeFailed  = ibxerrors.TableCode("operation_failed")
)

// Table is one logical Iceberg table rooted at Path, bound to a Storage
// and Compute collaborator pair. Its methods are not safe for concurrent
// use by multiple writers on the same table — callers serialize that
// externally, per the core's concurrency model.
type Table struct {
	st     storage.Storage
	eng    compute.Compute
	Path   string
	logger zerolog.Logger
	stats  *Stats
}

// Config carries the collaborators and root location a Table binds to.
// There is no global config singleton; every Table is constructed from
// an explicit Config, the way the teacher's storage Manager is built
// from its own Config rather than package state.
type Config struct {
	Storage storage.Storage
	Compute compute.Compute
	BaseURL string
}

// Option customizes a Table beyond its Config at construction time.
type Option func(*Table)

// WithLogger attaches logger to the Table. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Table) { t.logger = logger }
}

// New binds a Table to its storage/compute collaborators and root path.
func New(cfg Config, opts ...Option) *Table {
	t := &Table{st: cfg.Storage, eng: cfg.Compute, Path: cfg.BaseURL, logger: zerolog.Nop(), stats: &Stats{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stats returns a point-in-time snapshot of this table's operation
// counters.
func (t *Table) Stats() StatsSnapshot { return t.stats.Snapshot() }

// Create writes the initial v0.metadata.json for a brand-new table,
// refusing to overwrite one that already exists at Path.
func (t *Table) Create(ctx context.Context, sch *schema.Schema, spec partition.Spec, opts metadata.CreateOptions) error {
	exists, err := metadata.Exists(ctx, t.st, t.Path)
	if err != nil {
		return err
	}
	if exists {
		return ibxerrors.Newf(codeAlreadyExists, "table already exists at %q", t.Path)
	}

	md, err := metadata.CreateInitial(t.Path, sch, spec, opts)
	if err != nil {
		return err
	}
	return metadata.Save(ctx, t.st, t.Path, md, t.logger)
}

// InsertOptions controls an InsertOverwrite or RegisterFiles call.
type InsertOptions struct {
	Operation           string // defaults to "overwrite" (InsertOverwrite) or "append" (RegisterFiles)
	PartitionBy         []string
	TargetFileSizeBytes int64
	SnapshotID          int64 // optional; 0 generates one
	SourceFile          string
}

func (t *Table) dataGlob() string { return fmt.Sprintf("%s/data/**/*.parquet", t.Path) }

// InsertOverwrite replaces the table's entire data set: clear the data
// directory, run sourceSQL through the compute collaborator to produce
// new Parquet files, assemble a snapshot over them, and commit it.
// Clearing the data directory is best-effort; a file that fails to
// delete is logged, not fatal — the new write is authoritative regardless.
func (t *Table) InsertOverwrite(ctx context.Context, sourceSQL string, opts InsertOptions) (snapshot.Snapshot, error) {
	md, err := metadata.Load(ctx, t.st, t.Path)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	dataDir := fmt.Sprintf("%s/data/", t.Path)
	t.clearDataDirectory(ctx, dataDir)

	destURL := fmt.Sprintf("%s/data", t.Path)
	writeOpts := compute.WriteOptions{PartitionBy: opts.PartitionBy, TargetFileSizeBytes: opts.TargetFileSizeBytes}
	if err := t.eng.WriteDataFiles(ctx, sourceSQL, destURL, writeOpts); err != nil {
		return snapshot.Snapshot{}, ibxerrors.New(codeFacadeFailed, "failed to write data files", err).AddContext("dest", destURL)
	}

	operation := opts.Operation
	if operation == "" {
		operation = "overwrite"
	}

	snap, err := t.assembleSnapshot(ctx, md, t.dataGlob(), operation, opts)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	if err := t.commit(ctx, md, snap); err != nil {
		return snapshot.Snapshot{}, err
	}
	return snap, nil
}

// RegisterFiles assembles a snapshot over files matching fileGlob that
// were produced outside this writer, without touching the data
// directory or running any SQL. It is a no-op (nil, nil) when fileGlob
// matches nothing.
func (t *Table) RegisterFiles(ctx context.Context, fileGlob string, opts InsertOptions) (*snapshot.Snapshot, error) {
	md, err := metadata.Load(ctx, t.st, t.Path)
	if err != nil {
		return nil, err
	}

	operation := opts.Operation
	if operation == "" {
		operation = "append"
	}

	snap, err := t.assembleSnapshot(ctx, md, fileGlob, operation, opts)
	if err != nil {
		return nil, err
	}
	if snap.Summary["added-data-files"] == "0" {
		return nil, nil
	}

	if err := t.commit(ctx, md, snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (t *Table) assembleSnapshot(ctx context.Context, md *metadata.TableMetadata, dataGlob, operation string, opts InsertOptions) (snapshot.Snapshot, error) {
	spec, _ := md.CurrentPartitionSpec()
	return snapshot.Create(ctx, t.st, t.eng, t.Path, dataGlob, snapshot.Options{
		PartitionSpec:  spec,
		SequenceNumber: md.LastSequenceNumber + 1,
		Operation:      operation,
		SourceFile:     opts.SourceFile,
		SnapshotID:     opts.SnapshotID,
		SchemaID:       md.CurrentSchemaID,
	})
}

func (t *Table) commit(ctx context.Context, md *metadata.TableMetadata, snap snapshot.Snapshot) error {
	next := metadata.AddSnapshot(md, snap)
	if err := metadata.Save(ctx, t.st, t.Path, next, t.logger); err != nil {
		return err
	}
	t.stats.recordSnapshot(snap)
	return nil
}

func (t *Table) clearDataDirectory(ctx context.Context, prefix string) {
	paths, err := t.st.List(ctx, prefix)
	if err != nil {
		t.logger.Warn().Err(err).Str("prefix", prefix).Msg("failed to list data directory for clearing")
		return
	}
	for _, p := range paths {
		if err := t.st.Delete(ctx, p); err != nil {
			t.logger.Warn().Err(err).Str("path", p).Msg("failed to delete stale data file; new write remains authoritative")
		}
	}
}

// EnsureNameMapping idempotently installs or repairs the
// schema.name-mapping.default property: a table created before the
// property existed, or whose current schema has since evolved past what
// the stored mapping reflects, gets it rebuilt and saved.
func (t *Table) EnsureNameMapping(ctx context.Context) error {
	md, err := metadata.Load(ctx, t.st, t.Path)
	if err != nil {
		return err
	}

	current, ok := md.CurrentSchema()
	if !ok {
		return ibxerrors.Newf(codeFacadeFailed, "table has no schema matching current-schema-id %d", md.CurrentSchemaID)
	}

	want, err := schema.BuildNameMapping(current)
	if err != nil {
		return ibxerrors.New(codeFacadeFailed, "failed to build name mapping", err)
	}

	if md.Properties[metadata.NameMappingProperty] == string(want) {
		return nil
	}

	_, err = metadata.UpdateProperties(ctx, t.st, t.Path, map[string]string{metadata.NameMappingProperty: string(want)}, t.logger)
	return err
}

func (t *Table) evolve(ctx context.Context, fn metadata.EvolveFunc, mode validate.Mode, tableEmpty bool) ([]string, error) {
	next, warnings, err := metadata.EvolveSchema(ctx, t.st, t.Path, fn, mode, tableEmpty)
	if err != nil {
		return nil, err
	}
	if err := metadata.Save(ctx, t.st, t.Path, next, t.logger); err != nil {
		return nil, err
	}
	t.stats.recordEvolution()
	return warnings, nil
}

// AddColumn evolves the table's schema to add field.
func (t *Table) AddColumn(ctx context.Context, field schema.Field, mode validate.Mode, tableEmpty bool) ([]string, error) {
	return t.evolve(ctx, func(sch *schema.Schema, evCtx evolve.Context) evolve.Result {
		return evolve.Add(sch, evCtx, field)
	}, mode, tableEmpty)
}

// DropColumn evolves the table's schema to drop the column named name.
func (t *Table) DropColumn(ctx context.Context, name string, mode validate.Mode) ([]string, error) {
	return t.evolve(ctx, func(sch *schema.Schema, evCtx evolve.Context) evolve.Result {
		return evolve.Drop(sch, evCtx, name)
	}, mode, false)
}

// RenameColumn evolves the table's schema to rename oldName to newName.
func (t *Table) RenameColumn(ctx context.Context, oldName, newName string, mode validate.Mode) ([]string, error) {
	return t.evolve(ctx, func(sch *schema.Schema, evCtx evolve.Context) evolve.Result {
		return evolve.Rename(sch, evCtx, oldName, newName)
	}, mode, false)
}

// UpdateColumnType evolves the table's schema to widen the column named
// name to newType.
func (t *Table) UpdateColumnType(ctx context.Context, name string, newType schema.Type, mode validate.Mode) ([]string, error) {
	return t.evolve(ctx, func(sch *schema.Schema, evCtx evolve.Context) evolve.Result {
		return evolve.PromoteType(sch, evCtx, name, newType)
	}, mode, false)
}
