package predictionlog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps entries in memory. It is used in tests and for
// deployments that only need metrics.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(ctx context.Context, e Entry) error {
	_ = ctx
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// Query returns matching entries ordered by creation time.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	_ = ctx
	s.mu.RLock()
	var res []Entry
	for _, e := range s.entries {
		if q.Match(e) {
			res = append(res, e)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error { return nil }
