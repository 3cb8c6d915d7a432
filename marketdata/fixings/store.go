package fixings

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a store has no fixings for an index.
var ErrNotFound = errors.New("fixings: index not found")

// Store loads fixing series by index name.
type Store interface {
	// Series returns the fixings of index with from <= date <= to.
	Series(ctx context.Context, index string, from, to time.Time) (*TimeSeries, error)
}
