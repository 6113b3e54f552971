package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps ids in a process-local LRU. Entries expire after ttl and
// the least recently claimed id is evicted once capacity is reached.
type MemoryStore struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, time.Time]
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		seen: expirable.NewLRU[string, time.Time](capacity, nil, ttl),
	}
}

func (s *MemoryStore) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen.Peek(id); ok {
		return false, nil
	}
	s.seen.Add(id, time.Now())
	return true, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	return s.seen.Len(), nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	s.seen.Purge()
	return nil
}
