// Package curve provides time-axis discount curves for coupon pricing.
//
// Times are year fractions from the valuation date (ACT/365F), the same axis
// the coupon package uses for converted derivatives.
package curve

import (
	"fmt"
	"math"
	"sort"
)

// ZeroCurve interpolates continuously compounded zero rates linearly in time
// and extrapolates flat on both ends.
type ZeroCurve struct {
	times []float64
	rates []float64 // decimal
}

// NewZeroCurve builds a curve from pillar times and zero rates (0.02 == 2%).
func NewZeroCurve(times, rates []float64) (*ZeroCurve, error) {
	if len(times) == 0 || len(times) != len(rates) {
		return nil, fmt.Errorf("NewZeroCurve: %d times and %d rates", len(times), len(rates))
	}
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return times[idx[a]] < times[idx[b]] })

	c := &ZeroCurve{times: make([]float64, len(times)), rates: make([]float64, len(times))}
	for i, k := range idx {
		if i > 0 && times[k] == c.times[i-1] {
			return nil, fmt.Errorf("NewZeroCurve: duplicate pillar at t=%g", times[k])
		}
		c.times[i] = times[k]
		c.rates[i] = rates[k]
	}
	return c, nil
}

// Flat returns a curve with the same zero rate at every time.
func Flat(rate float64) *ZeroCurve {
	return &ZeroCurve{times: []float64{0}, rates: []float64{rate}}
}

// ZeroRate returns the interpolated zero rate at t.
func (c *ZeroCurve) ZeroRate(t float64) float64 {
	n := len(c.times)
	if n == 1 || t <= c.times[0] {
		return c.rates[0]
	}
	if t >= c.times[n-1] {
		return c.rates[n-1]
	}
	// First pillar strictly after t; t lies in [times[i-1], times[i]).
	i := sort.Search(n, func(i int) bool { return c.times[i] > t })
	t1, t2 := c.times[i-1], c.times[i]
	r1, r2 := c.rates[i-1], c.rates[i]
	return r1 + (r2-r1)*(t-t1)/(t2-t1)
}

// DiscountFactor returns exp(-r(t)·t).
func (c *ZeroCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.ZeroRate(t) * t)
}

// Forward returns the simply compounded rate between start and end accruing
// over accrualFactor.
func (c *ZeroCurve) Forward(start, end, accrualFactor float64) float64 {
	return (c.DiscountFactor(start)/c.DiscountFactor(end) - 1) / accrualFactor
}
