package secrets

import (
	"context"
	"sync"

	"vouch/pkg/platform/sentinel"
)

// MemoryStore is the in-process Store used in tests and single-node dev.
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]Bundle
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bundles: make(map[string]Bundle)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, sessionID string, b Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[sessionID] = b
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[sessionID]
	if !ok {
		return Bundle{}, sentinel.ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bundles, sessionID)
	return nil
}
