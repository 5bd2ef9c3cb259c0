package table

import (
	"strconv"
	"sync"
	"time"

	"github.com/gear6io/iceberg-writer/iceberg/snapshot"
)

// Stats tracks a Table's lifetime operation counters. Unlike the rest of
// this package, its methods are safe for concurrent use — nothing stops
// a caller from reading Stats() while another goroutine drives an
// operation, even though the write path itself is single-writer.
type Stats struct {
	mu sync.Mutex

	snapshotsCommitted int64
	bytesWritten       int64
	recordsWritten     int64
	schemaEvolutions   int64
	lastOperationMs    int64
}

// StatsSnapshot is a consistent, independent copy of Stats' counters at
// one point in time.
type StatsSnapshot struct {
	SnapshotsCommitted int64
	BytesWritten       int64
	RecordsWritten     int64
	SchemaEvolutions   int64
	LastOperationMs    int64
}

func (s *Stats) recordSnapshot(snap snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotsCommitted++
	if v, err := strconv.ParseInt(snap.Summary["added-files-size"], 10, 64); err == nil {
		s.bytesWritten += v
	}
	if v, err := strconv.ParseInt(snap.Summary["added-records"], 10, 64); err == nil {
		s.recordsWritten += v
	}
	s.lastOperationMs = snap.TimestampMs
}

func (s *Stats) recordEvolution() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schemaEvolutions++
	s.lastOperationMs = time.Now().UnixMilli()
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		SnapshotsCommitted: s.snapshotsCommitted,
		BytesWritten:       s.bytesWritten,
		RecordsWritten:     s.recordsWritten,
		SchemaEvolutions:   s.schemaEvolutions,
		LastOperationMs:    s.lastOperationMs,
	}
}
