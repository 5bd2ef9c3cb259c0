// Package storage declares the Storage collaborator contract: the one
// abstraction every package above it (metadata, snapshot, manifest/
// manifest-list upload, table) uses to read and write bytes at a path,
// independent of the backing object store.
package storage

import (
	"context"
	goerrors "errors"

	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

// ErrNotFound is the error code a Storage implementation's Download call
// returns when it can't find path; IsNotFound detects it. Exists reports
// a missing path as (false, nil) rather than as an error.
var ErrNotFound = ibxerrors.StorageCode("not_found")

// Storage is the abstract object-storage collaborator. Every method
// blocks until the operation completes or ctx is cancelled; there is no
// internal buffering or async completion visible to callers.
type Storage interface {
	// Upload writes data to path, creating or replacing it. Implementations
	// that can (filesystem, memory) make this atomic: readers never observe
	// a partial write.
	Upload(ctx context.Context, path string, data []byte, contentType string) error

	// Download reads the full contents of path. Returns an error wrapping
	// ErrNotFound when path does not exist.
	Download(ctx context.Context, path string) ([]byte, error)

	// List returns every path stored under prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes path. Deleting a path that doesn't exist is not an
	// error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether path is present.
	Exists(ctx context.Context, path string) (bool, error)
}

// IsNotFound reports whether err was raised with ErrNotFound's code,
// regardless of which Storage implementation produced it.
func IsNotFound(err error) bool {
	var ibxErr *ibxerrors.Error
	if !goerrors.As(err, &ibxErr) {
		return false
	}
	return ibxErr.Code.String() == ErrNotFound.String()
}
