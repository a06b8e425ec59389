package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// read and by Sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := s.entries[key]; ok && s.now().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("memory cache: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("memory cache: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

// Sweep removes expired entries and reports how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len counts entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
