package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/orderflow/internal/orders/ports"
)

// Store retains idempotency responses in memory.
type Store struct {
	mu    sync.RWMutex
	items map[string]ports.StoredResponse
}

func NewStore() *Store {
	return &Store{items: make(map[string]ports.StoredResponse)}
}

// Get returns the stored response for key, or nil when the key is unknown.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

// Save keeps the first response stored for a key, matching the postgres store.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[key]; !exists {
		s.items[key] = response
	}
	return nil
}
