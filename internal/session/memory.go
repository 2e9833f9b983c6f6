package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	principal Principal
	value     string
	expires   time.Time
}

// MemoryStore is an in-process Store for single-instance deployments and
// tests. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, id string, p Principal, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionKey(id)] = entry{principal: p, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionKey(id)]
	if !ok || !s.now().Before(e.expires) {
		return Principal{}, ErrNotFound
	}
	return e.principal, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionKey(id))
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && s.now().Before(e.expires) {
		return false, e.value, nil
	}
	s.entries[key] = entry{value: Pending, expires: s.now().Add(ttl)}
	return true, "", nil
}

func (s *MemoryStore) Complete(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
