// Package memory implements the Storage collaborator as a process-local
// mutex-guarded map. It exists solely to exercise the core packages'
// tests without touching disk or a real object store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/gear6io/iceberg-writer/iceberg/storage"
	ibxerrors "github.com/gear6io/iceberg-writer/pkg/errors"
)

// Storage is an in-memory implementation of storage.Storage.
type Storage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory store.
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Upload(_ context.Context, path string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.data[path] = buf
	return nil
}

func (s *Storage) Download(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	if !ok {
		return nil, ibxerrors.New(storage.ErrNotFound, "object not found", nil).AddContext("path", path)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for p := range s.data {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[path]
	return ok, nil
}
