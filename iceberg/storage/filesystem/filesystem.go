// Package filesystem implements the Storage collaborator against local
// disk, writing every object atomically via a temp-file-then-rename so
// readers never observe a partially written file.
package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

var codeWriteFailed = ibxerrors.StorageCode("write_failed")
var codeReadFailed = ibxerrors.StorageCode("read_failed")

// Storage is a local-disk implementation of storage.Storage rooted at a
// base directory. Paths passed to its methods are relative to that root.
type Storage struct {
	root string
}

// New returns a Storage rooted at root, creating root if it doesn't
// already exist.
func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, ibxerrors.New(codeWriteFailed, "failed to create storage root", err).AddContext("root", root)
	}
	return &Storage{root: root}, nil
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func (s *Storage) Upload(_ context.Context, path string, data []byte, _ string) error {
	full := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return ibxerrors.New(codeWriteFailed, "failed to create parent directory", err).AddContext("path", path)
	}

	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return ibxerrors.New(codeWriteFailed, "failed to create temporary file", err).AddContext("path", path)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return ibxerrors.New(codeWriteFailed, "failed to write temporary file", err).AddContext("path", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ibxerrors.New(codeWriteFailed, "failed to sync temporary file", err).AddContext("path", path)
	}
	if err := f.Close(); err != nil {
		return ibxerrors.New(codeWriteFailed, "failed to close temporary file", err).AddContext("path", path)
	}

	if err := os.Rename(tmp, full); err != nil {
		return ibxerrors.New(codeWriteFailed, "failed to atomically rename into place", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) Download(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ibxerrors.New(storage.ErrNotFound, "object not found", err).AddContext("path", path)
		}
		return nil, ibxerrors.New(codeReadFailed, "failed to read file", err).AddContext("path", path)
	}
	return data, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]string, error) {
	base := s.abs(prefix)
	var out []string

	walkRoot := base
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		walkRoot = filepath.Dir(base)
	}

	err := filepath.Walk(walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, ibxerrors.New(codeReadFailed, "failed to list objects", err).AddContext("prefix", prefix)
	}
	return out, nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	if err := os.Remove(s.abs(path)); err != nil && !os.IsNotExist(err) {
		return ibxerrors.New(codeWriteFailed, "failed to delete file", err).AddContext("path", path)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, ibxerrors.New(codeReadFailed, "failed to stat file", err).AddContext("path", path)
}
