// Package metadata owns the v{N}.metadata.json / version-hint.text pair:
// creating the initial document, loading and saving it, and applying the
// three mutations a table ever undergoes (add a snapshot, evolve the
// schema, update properties). TableMetadata is otherwise immutable —
// every mutation here returns a new value, and persisting it is always a
// separate, explicit Save call.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gear6io/iceberg-writer/iceberg/partition"
	"github.com/gear6io/iceberg-writer/iceberg/schema"
	"github.com/gear6io/iceberg-writer/iceberg/schema/evolve"
	"github.com/gear6io/iceberg-writer/iceberg/schema/validate"
	"github.com/gear6io/iceberg-writer/iceberg/snapshot"
	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var (
	codeCreateFailed = ibxerrors.MetadataCode("create_failed")
	codeSaveFailed   = ibxerrors.MetadataCode("save_failed")
	codeLoadFailed   = ibxerrors.MetadataCode("load_failed")
	codeNotFound     = ibxerrors.MetadataCode("not_found")
	codeEvolveFailed = ibxerrors.MetadataCode("evolve_failed")
)

// NameMappingProperty is the well-known properties key a table's default
// name mapping is stored under.
const NameMappingProperty = "schema.name-mapping.default"

// SnapshotLogEntry is one element of TableMetadata.SnapshotLog.
type SnapshotLogEntry struct {
	SnapshotID  int64 `json:"snapshot-id"`
	TimestampMs int64 `json:"timestamp-ms"`
}

// MetadataLogEntry is one element of TableMetadata.MetadataLog: a pointer
// to a prior metadata file this version superseded.
type MetadataLogEntry struct {
	MetadataFile string `json:"metadata-file"`
	TimestampMs  int64  `json:"timestamp-ms"`
}

// SortField is one field of a sort order. Sort-order enforcement is out
// of scope for this writer; the shape is carried through so a document
// this writer produces is a well-formed v2 TableMetadata, but Fields is
// always empty in practice.
type SortField struct {
	SourceID  int    `json:"source-id"`
	Transform string `json:"transform"`
	Direction string `json:"direction"`
	NullOrder string `json:"null-order"`
}

// SortOrder is one element of TableMetadata.SortOrders.
type SortOrder struct {
	OrderID int         `json:"order-id"`
	Fields  []SortField `json:"fields"`
}

// TableMetadata is the full v2 document persisted as v{N}.metadata.json.
// Every field here is one of the fields the v2 format requires.
type TableMetadata struct {
	FormatVersion       int                `json:"format-version"`
	TableUUID           string             `json:"table-uuid"`
	Location            string             `json:"location"`
	LastSequenceNumber  int64              `json:"last-sequence-number"`
	LastUpdatedMs       int64              `json:"last-updated-ms"`
	LastColumnID        int                `json:"last-column-id"`
	LastPartitionID     int                `json:"last-partition-id"`
	Schemas             []*schema.Schema   `json:"schemas"`
	CurrentSchemaID     int                `json:"current-schema-id"`
	PartitionSpecs      []partition.Spec   `json:"partition-specs"`
	DefaultSpecID       int                `json:"default-spec-id"`
	Properties          map[string]string  `json:"properties"`
	CurrentSnapshotID   int64              `json:"current-snapshot-id"`
	Snapshots           []snapshot.Snapshot `json:"snapshots"`
	SnapshotLog         []SnapshotLogEntry `json:"snapshot-log"`
	MetadataLog         []MetadataLogEntry `json:"metadata-log"`
	SortOrders          []SortOrder        `json:"sort-orders"`
	DefaultSortOrderID  int                `json:"default-sort-order-id"`
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (md *TableMetadata) CurrentSchema() (*schema.Schema, bool) {
	for _, s := range md.Schemas {
		if s.SchemaID == md.CurrentSchemaID {
			return s, true
		}
	}
	return nil, false
}

// CurrentPartitionSpec returns the spec named by DefaultSpecID.
func (md *TableMetadata) CurrentPartitionSpec() (partition.Spec, bool) {
	for _, s := range md.PartitionSpecs {
		if s.SpecID == md.DefaultSpecID {
			return s, true
		}
	}
	return partition.Spec{}, false
}

// clone returns a copy of md whose slices and maps are independent of the
// original, so mutating the copy never aliases the caller's value.
func (md *TableMetadata) clone() *TableMetadata {
	next := *md
	next.Schemas = append([]*schema.Schema(nil), md.Schemas...)
	next.PartitionSpecs = append([]partition.Spec(nil), md.PartitionSpecs...)
	next.Snapshots = append([]snapshot.Snapshot(nil), md.Snapshots...)
	next.SnapshotLog = append([]SnapshotLogEntry(nil), md.SnapshotLog...)
	next.MetadataLog = append([]MetadataLogEntry(nil), md.MetadataLog...)
	next.SortOrders = append([]SortOrder(nil), md.SortOrders...)
	next.Properties = make(map[string]string, len(md.Properties))
	for k, v := range md.Properties {
		next.Properties[k] = v
	}
	return &next
}

// CreateOptions carries caller-supplied overrides for CreateInitial.
// Properties set here win over the defaults CreateInitial computes
// (notably schema.name-mapping.default, if the caller insists on a
// specific one).
type CreateOptions struct {
	Properties map[string]string
}

// CreateInitial builds a brand-new TableMetadata: format-version 2,
// last-sequence-number 0, current-snapshot-id -1, and a
// schema.name-mapping.default property derived from sch. It does not
// touch storage; call Save to persist the result as v0.metadata.json.
func CreateInitial(tablePath string, sch *schema.Schema, spec partition.Spec, opts CreateOptions) (*TableMetadata, error) {
	nameMapping, err := schema.BuildNameMapping(sch)
	if err != nil {
		return nil, ibxerrors.New(codeCreateFailed, "failed to build name mapping", err)
	}

	props := map[string]string{NameMappingProperty: string(nameMapping)}
	for k, v := range opts.Properties {
		props[k] = v
	}

	lastPartitionID := partition.FirstPartitionFieldID - 1
	for _, f := range spec.Fields {
		if f.FieldID > lastPartitionID {
			lastPartitionID = f.FieldID
		}
	}

	now := time.Now().UnixMilli()
	return &TableMetadata{
		FormatVersion:      2,
		TableUUID:          uuid.NewString(),
		Location:           tablePath,
		LastSequenceNumber: 0,
		LastUpdatedMs:      now,
		LastColumnID:       sch.MaxFieldID(),
		LastPartitionID:    lastPartitionID,
		Schemas:            []*schema.Schema{sch},
		CurrentSchemaID:    sch.SchemaID,
		PartitionSpecs:     []partition.Spec{spec},
		DefaultSpecID:      spec.SpecID,
		Properties:         props,
		CurrentSnapshotID:  -1,
		Snapshots:          []snapshot.Snapshot{},
		SnapshotLog:        []SnapshotLogEntry{},
		MetadataLog:        []MetadataLogEntry{},
		SortOrders:         []SortOrder{{OrderID: 0, Fields: []SortField{}}},
		DefaultSortOrderID: 0,
	}, nil
}

func metadataPath(tablePath string, n int64) string {
	return fmt.Sprintf("%s/metadata/v%d.metadata.json", tablePath, n)
}

func versionHintPath(tablePath string) string {
	return fmt.Sprintf("%s/metadata/version-hint.text", tablePath)
}

// Save uploads v{N}.metadata.json (N = md.LastSequenceNumber), then
// version-hint.text with N as decimal text. Both writes retry
// transiently-failing uploads; if the metadata file succeeds but the
// hint does not, the new file is left orphaned and the table remains
// readable at its previous version.
func Save(ctx context.Context, st storage.Storage, tablePath string, md *TableMetadata, logger zerolog.Logger) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return ibxerrors.New(codeSaveFailed, "failed to encode table metadata", err)
	}

	path := metadataPath(tablePath, md.LastSequenceNumber)
	cfg := storage.DefaultRetryConfig()
	if err := storage.UploadWithRetry(ctx, st, path, data, "application/json", cfg, logger); err != nil {
		return ibxerrors.New(codeSaveFailed, "failed to upload table metadata", err).AddContext("path", path)
	}

	hint := strconv.FormatInt(md.LastSequenceNumber, 10)
	hintPath := versionHintPath(tablePath)
	if err := storage.UploadWithRetry(ctx, st, hintPath, []byte(hint), "text/plain", cfg, logger); err != nil {
		return ibxerrors.New(codeSaveFailed, "metadata file uploaded but version-hint update failed; table remains at the previous version", err).AddContext("path", hintPath)
	}
	return nil
}

// Load reads version-hint.text to find the current version, falling
// back to v1.metadata.json when the hint is missing, and fails with
// codeNotFound when neither exists.
func Load(ctx context.Context, st storage.Storage, tablePath string) (*TableMetadata, error) {
	n, err := readVersionHint(ctx, st, versionHintPath(tablePath))
	if err != nil {
		if !storage.IsNotFound(err) {
			return nil, err
		}
		n = 1
	}

	path := metadataPath(tablePath, n)
	data, err := st.Download(ctx, path)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ibxerrors.New(codeNotFound, "table metadata not found", err).AddContext("path", path)
		}
		return nil, ibxerrors.New(codeLoadFailed, "failed to download table metadata", err).AddContext("path", path)
	}

	var md TableMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, ibxerrors.New(codeLoadFailed, "failed to parse table metadata", err).AddContext("path", path)
	}
	return &md, nil
}

func readVersionHint(ctx context.Context, st storage.Storage, path string) (int64, error) {
	data, err := st.Download(ctx, path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, ibxerrors.New(codeLoadFailed, "version-hint.text does not contain a valid integer", err).AddContext("path", path)
	}
	return n, nil
}

// Exists reports whether a table already has persisted metadata at
// tablePath: either version-hint.text or, lacking that, v1.metadata.json.
func Exists(ctx context.Context, st storage.Storage, tablePath string) (bool, error) {
	ok, err := st.Exists(ctx, versionHintPath(tablePath))
	if err != nil {
		return false, ibxerrors.New(codeLoadFailed, "failed to probe version-hint.text", err)
	}
	if ok {
		return true, nil
	}
	return st.Exists(ctx, metadataPath(tablePath, 1))
}

// AddSnapshot returns a new TableMetadata with snap appended: the
// sequence number bumped, current-snapshot-id advanced, and both
// snapshots and snapshot-log extended. It is pure; the caller must Save
// the result for the change to take effect.
func AddSnapshot(md *TableMetadata, snap snapshot.Snapshot) *TableMetadata {
	next := md.clone()
	next.LastSequenceNumber = md.LastSequenceNumber + 1
	next.CurrentSnapshotID = snap.SnapshotID
	next.Snapshots = append(next.Snapshots, snap)
	next.SnapshotLog = append(next.SnapshotLog, SnapshotLogEntry{SnapshotID: snap.SnapshotID, TimestampMs: snap.TimestampMs})
	next.LastUpdatedMs = time.Now().UnixMilli()
	return next
}

// EvolveFunc is one pure schema-evolution operation, as produced by the
// evolve package's Add/Drop/Rename/PromoteType/PromoteRequired functions
// partially applied to their field-specific arguments.
type EvolveFunc func(sch *schema.Schema, ctx evolve.Context) evolve.Result

// EvolveSchema loads the table's current metadata, applies fn to its
// current schema, and on success returns a new TableMetadata with the
// new schema appended (never replacing a prior one), current-schema-id
// advanced, last-column-id raised to cover the new schema's fields, and
// schema.name-mapping.default rebuilt. It does not Save; the caller does.
func EvolveSchema(ctx context.Context, st storage.Storage, tablePath string, fn EvolveFunc, mode validate.Mode, tableEmpty bool) (*TableMetadata, []string, error) {
	md, err := Load(ctx, st, tablePath)
	if err != nil {
		return nil, nil, err
	}

	current, ok := md.CurrentSchema()
	if !ok {
		return nil, nil, ibxerrors.Newf(codeEvolveFailed, "table has no schema matching current-schema-id %d", md.CurrentSchemaID)
	}

	evalCtx := evolve.Context{NextFieldID: md.LastColumnID + 1, Historical: md.Schemas, Mode: mode, TableEmpty: tableEmpty}
	res := fn(current, evalCtx)
	if res.Err != nil {
		return nil, nil, res.Err
	}

	maxSchemaID := md.CurrentSchemaID
	for _, s := range md.Schemas {
		if s.SchemaID > maxSchemaID {
			maxSchemaID = s.SchemaID
		}
	}
	res.Schema.SchemaID = maxSchemaID + 1

	nameMapping, err := schema.BuildNameMapping(res.Schema)
	if err != nil {
		return nil, nil, ibxerrors.New(codeEvolveFailed, "failed to rebuild name mapping", err)
	}

	next := md.clone()
	next.Schemas = append(next.Schemas, res.Schema)
	next.CurrentSchemaID = res.Schema.SchemaID
	if newMax := res.Schema.MaxFieldID(); newMax > next.LastColumnID {
		next.LastColumnID = newMax
	}
	next.Properties[NameMappingProperty] = string(nameMapping)
	next.LastUpdatedMs = time.Now().UnixMilli()

	return next, res.Warnings, nil
}

// UpdateProperties loads the table's current metadata, merges kv into
// Properties (kv wins on key collision), refreshes last-updated-ms, and
// saves the result.
func UpdateProperties(ctx context.Context, st storage.Storage, tablePath string, kv map[string]string, logger zerolog.Logger) (*TableMetadata, error) {
	md, err := Load(ctx, st, tablePath)
	if err != nil {
		return nil, err
	}

	next := md.clone()
	for k, v := range kv {
		next.Properties[k] = v
	}
	next.LastUpdatedMs = time.Now().UnixMilli()

	if err := Save(ctx, st, tablePath, next, logger); err != nil {
		return nil, err
	}
	return next, nil
}
