// ABOUTME: In-memory Store backend with per-key locking.
// ABOUTME: Default backend; history lives for the process lifetime only.

package session

import (
	"context"
	"sync"
)

// MemoryStore keeps turn history in process memory. Each key gets its own
// entry with its own mutex, so appends to unrelated conversations never
// block each other; the store-level lock guards only the key-to-entry map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]*entry
}

type entry struct {
	mu    sync.Mutex
	turns []Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]*entry),
	}
}

// getOrCreate returns the entry for key, creating it on first use.
func (s *MemoryStore) getOrCreate(key Key) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e
	}
	e = &entry{}
	s.entries[key] = e
	return e
}

// Append adds turns to the key's history in order. The whole call is atomic
// with respect to other appends on the same key.
func (s *MemoryStore) Append(ctx context.Context, key Key, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}
	e := s.getOrCreate(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = append(e.turns, turns...)
	return nil
}

// Read returns the most recent limit turns, oldest first. limit <= 0 means
// all turns. Unknown keys read as empty.
func (s *MemoryStore) Read(ctx context.Context, key Key, limit int) ([]Turn, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	turns := e.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Delete removes the key's history. Deleting an absent key is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close releases nothing for the memory backend but satisfies Store.
func (s *MemoryStore) Close() error {
	return nil
}
