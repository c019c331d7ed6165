package blob

import (
	"context"
	"sync"
)

// MemoryStore is an in-process blob store used by tests
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an in-memory blob store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Upload stores content and returns its address
func (s *MemoryStore) Upload(ctx context.Context, data []byte, pathHint, contentType string) (Ref, error) {
	address := newAddress("mem", pathHint)

	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[address] = copied

	return Ref{Address: address, Size: int64(len(data))}, nil
}

// Fetch retrieves content by address
func (s *MemoryStore) Fetch(ctx context.Context, address string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[address]
	if !ok {
		return nil, &OpError{Op: "fetch", Err: ErrNotFound}
	}
	return data, nil
}

// Delete removes content by address
func (s *MemoryStore) Delete(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, address)
	return nil
}

// Type returns the backend type identifier
func (s *MemoryStore) Type() string {
	return "memory"
}

// Len reports the number of stored blobs (test helper)
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
