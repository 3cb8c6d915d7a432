package fixings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meenmo/cpnlib/utils"
)

// CachedStore wraps a primary Store with a Redis read-through cache. A cached
// entry holds one (index, from, to) query result and expires after ttl.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

type cachedSeries struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// Series implements Store.
func (s *CachedStore) Series(ctx context.Context, index string, from, to time.Time) (*TimeSeries, error) {
	key := seriesKey(index, from, to)

	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		if ts, ok := decodeSeries(data); ok {
			return ts, nil
		}
	}

	ts, err := s.primary.Series(ctx, index, from, to)
	if err != nil {
		return nil, err
	}
	if data, err := encodeSeries(ts); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return ts, nil
}

// Invalidate drops every cached query for index.
func (s *CachedStore) Invalidate(ctx context.Context, index string) error {
	iter := s.rdb.Scan(ctx, 0, fmt.Sprintf("fixings:%s:*", index), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("invalidate %s: %w", index, err)
		}
	}
	return iter.Err()
}

func encodeSeries(ts *TimeSeries) ([]byte, error) {
	cs := cachedSeries{Values: ts.Values()}
	for _, d := range ts.Dates() {
		cs.Dates = append(cs.Dates, utils.DateKey(d))
	}
	return json.Marshal(cs)
}

func decodeSeries(data []byte) (*TimeSeries, bool) {
	var cs cachedSeries
	if json.Unmarshal(data, &cs) != nil {
		return nil, false
	}
	dates := make([]time.Time, len(cs.Dates))
	for i, s := range cs.Dates {
		d, err := utils.ParseDate(s)
		if err != nil {
			return nil, false
		}
		dates[i] = d
	}
	ts, err := NewTimeSeries(dates, cs.Values)
	if err != nil {
		return nil, false
	}
	return ts, true
}

func seriesKey(index string, from, to time.Time) string {
	return fmt.Sprintf("fixings:%s:%s:%s", index, utils.DateKey(from), utils.DateKey(to))
}
