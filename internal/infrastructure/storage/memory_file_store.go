package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
)

// Ensure MemoryFileStore implements RawFileStore
var _ bulk.RawFileStore = (*MemoryFileStore)(nil)

// MemoryFileStore keeps uploaded files in process memory.
// Files are lost on restart, so use it only for tests and local development.
type MemoryFileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryFileStore creates a new MemoryFileStore
func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{
		files: make(map[string][]byte),
	}
}

// Put stores a copy of data under key
func (s *MemoryFileStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), data...)
	return nil
}

// Get returns a copy of the bytes stored under key
func (s *MemoryFileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the file stored under key
func (s *MemoryFileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
}
