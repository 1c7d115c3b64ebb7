package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// sweepAt is the entry count above which Set drops expired entries.
const sweepAt = 1024

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore is a process-local Store. Values are kept JSON encoded so reads
// never share memory with the writer, matching RedisStore semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   Clock
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = systemClock{}
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !s.clock.Now().Before(entry.expires) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expires.Equal(entry.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(val)
	if err != nil {
		return err
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= sweepAt {
		for k, e := range s.entries {
			if !now.Before(e.expires) {
				delete(s.entries, k)
			}
		}
	}
	s.entries[key] = memoryEntry{payload: payload, expires: now.Add(ttl)}
	return nil
}

// Ping always succeeds; it lets MemoryStore stand in wherever readiness is
// checked.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
