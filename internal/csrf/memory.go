package csrf

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process token store for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]time.Time)}
}

func (s *MemoryStore) SaveToken(_ context.Context, token string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = time.Now().Add(expiresIn)
	return nil
}

func (s *MemoryStore) ConsumeToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.tokens[token]
	if !ok {
		return ErrInvalidToken
	}
	delete(s.tokens, token)
	if time.Now().After(expires) {
		return ErrInvalidToken
	}
	return nil
}

func (s *MemoryStore) CheckHealth(context.Context) error { return nil }
