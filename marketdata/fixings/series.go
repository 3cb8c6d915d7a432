// Package fixings supplies observed index fixings to coupon conversion.
//
// A Series answers "what was fixed on this day"; Store implementations load a
// Series for an index from memory, PostgreSQL, or a Redis read-through cache.
package fixings

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/cpnlib/utils"
)

// Series is a read-only lookup of fixing values by calendar day.
type Series interface {
	// Value returns the rate fixed on date's calendar day, if any.
	Value(date time.Time) (float64, bool)
	// Len returns the number of recorded fixings.
	Len() int
}

// IsEmpty reports whether s is nil or holds no fixings.
func IsEmpty(s Series) bool {
	return s == nil || s.Len() == 0
}

// TimeSeries is an immutable, date-sorted fixing series.
type TimeSeries struct {
	dates  []time.Time
	values []float64
	index  map[string]int
}

// NewTimeSeries builds a series from parallel date and value slices.
// Dates are truncated to calendar days; duplicates are rejected.
func NewTimeSeries(dates []time.Time, values []float64) (*TimeSeries, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("NewTimeSeries: %d dates but %d values", len(dates), len(values))
	}
	type point struct {
		d time.Time
		v float64
	}
	pts := make([]point, len(dates))
	for i := range dates {
		pts[i] = point{utils.DateOnly(dates[i]), values[i]}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].d.Before(pts[j].d) })

	ts := &TimeSeries{
		dates:  make([]time.Time, len(pts)),
		values: make([]float64, len(pts)),
		index:  make(map[string]int, len(pts)),
	}
	for i, p := range pts {
		key := p.d.Format(utils.DateLayout)
		if _, dup := ts.index[key]; dup {
			return nil, fmt.Errorf("NewTimeSeries: duplicate fixing on %s", key)
		}
		ts.dates[i] = p.d
		ts.values[i] = p.v
		ts.index[key] = i
	}
	return ts, nil
}

// Value implements Series.
func (ts *TimeSeries) Value(date time.Time) (float64, bool) {
	if ts == nil {
		return 0, false
	}
	i, ok := ts.index[utils.DateKey(date)]
	if !ok {
		return 0, false
	}
	return ts.values[i], true
}

// Len implements Series.
func (ts *TimeSeries) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.dates)
}

// Dates returns a copy of the fixing dates in ascending order.
func (ts *TimeSeries) Dates() []time.Time {
	return append([]time.Time(nil), ts.dates...)
}

// Values returns a copy of the fixing values aligned with Dates.
func (ts *TimeSeries) Values() []float64 {
	return append([]float64(nil), ts.values...)
}

// First returns the earliest fixing date. ok is false for an empty series.
func (ts *TimeSeries) First() (time.Time, bool) {
	if ts.Len() == 0 {
		return time.Time{}, false
	}
	return ts.dates[0], true
}

// Last returns the latest fixing date. ok is false for an empty series.
func (ts *TimeSeries) Last() (time.Time, bool) {
	if ts.Len() == 0 {
		return time.Time{}, false
	}
	return ts.dates[len(ts.dates)-1], true
}

// Slice returns the fixings with from <= date <= to.
func (ts *TimeSeries) Slice(from, to time.Time) *TimeSeries {
	from, to = utils.DateOnly(from), utils.DateOnly(to)
	lo := sort.Search(len(ts.dates), func(i int) bool { return !ts.dates[i].Before(from) })
	hi := sort.Search(len(ts.dates), func(i int) bool { return ts.dates[i].After(to) })
	if hi < lo {
		hi = lo
	}
	out, _ := NewTimeSeries(ts.dates[lo:hi], ts.values[lo:hi])
	return out
}

// MapSeries is a static map-backed series keyed by YYYY-MM-DD, convenient for
// hand-written fixtures.
type MapSeries struct {
	rates map[string]float64
}

// NewMapSeries wraps rates; the map is copied.
func NewMapSeries(rates map[string]float64) *MapSeries {
	cp := make(map[string]float64, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return &MapSeries{rates: cp}
}

// Value implements Series.
func (m *MapSeries) Value(date time.Time) (float64, bool) {
	val, ok := m.rates[utils.DateKey(date)]
	return val, ok
}

// Len implements Series.
func (m *MapSeries) Len() int {
	return len(m.rates)
}
