package fixings

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and offline runs.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string]*TimeSeries
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string]*TimeSeries)}
}

// Put replaces the series held for index.
func (s *MemoryStore) Put(index string, ts *TimeSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[index] = ts
}

// Series implements Store.
func (s *MemoryStore) Series(ctx context.Context, index string, from, to time.Time) (*TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ts, ok := s.series[index]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory store %s: %w", index, ErrNotFound)
	}
	return ts.Slice(from, to), nil
}
