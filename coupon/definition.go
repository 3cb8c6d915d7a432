// Package coupon converts flat-compounding Ibor coupon definitions into
// time-relative derivatives for pricing.
//
// A Definition is dated and immutable. Convert fixes it against a reference
// date and a fixing series, producing either a FixedCoupon (every sub-period
// already fixed) or a FlatCompoundingCoupon (some observations still to be
// projected).
package coupon

import (
	"time"

	"github.com/meenmo/cpnlib/calendar"
	"github.com/meenmo/cpnlib/market"
	"github.com/meenmo/cpnlib/utils"
)

// DefinitionParams are the inputs to NewDefinition.
//
// FixingDates, Weights and the three FixingPeriod* matrices share one shape:
// a row per compounding sub-period, a column per observation averaged in that
// sub-period. When the FixingPeriod* matrices are all nil they are derived from
// Index on Calendar.
type DefinitionParams struct {
	Currency         string
	PaymentDate      time.Time
	AccrualStartDate time.Time
	AccrualEndDate   time.Time

	// PaymentYearFraction is the accrual factor of the whole coupon.
	PaymentYearFraction float64
	Notional            float64

	// SubPeriodAccrualFactors has one entry per sub-period.
	SubPeriodAccrualFactors []float64

	FixingDates [][]time.Time
	Weights     [][]float64

	FixingPeriodStartDates     [][]time.Time
	FixingPeriodEndDates       [][]time.Time
	FixingPeriodAccrualFactors [][]float64

	Index    *market.IborIndex
	Calendar calendar.CalendarID

	// Spread is added once to each sub-period's averaged rate.
	Spread float64
}

// Definition is an immutable flat-compounding Ibor coupon with spread.
type Definition struct {
	currency            string
	paymentDate         time.Time
	accrualStartDate    time.Time
	accrualEndDate      time.Time
	paymentYearFraction float64
	notional            float64
	subPeriodFactors    []float64
	fixingDates         [][]time.Time
	weights             [][]float64
	periodStartDates    [][]time.Time
	periodEndDates      [][]time.Time
	periodFactors       [][]float64
	index               *market.IborIndex
	spread              float64
}

// NewDefinition validates p and returns a Definition holding deep copies of its slices.
func NewDefinition(p DefinitionParams) (*Definition, error) {
	n := len(p.FixingDates)
	if n == 0 {
		return nil, invalidf("no sub-periods")
	}
	if p.PaymentDate.IsZero() {
		return nil, invalidf("payment date is required")
	}
	if p.PaymentYearFraction <= 0 {
		return nil, invalidf("payment year fraction must be positive, got %g", p.PaymentYearFraction)
	}
	if len(p.SubPeriodAccrualFactors) != n {
		return nil, invalidf("%d sub-period accrual factors for %d sub-periods", len(p.SubPeriodAccrualFactors), n)
	}
	if len(p.Weights) != n {
		return nil, invalidf("%d weight rows for %d sub-periods", len(p.Weights), n)
	}

	d := &Definition{
		currency:            p.Currency,
		paymentDate:         utils.DateOnly(p.PaymentDate),
		accrualStartDate:    utils.DateOnly(p.AccrualStartDate),
		accrualEndDate:      utils.DateOnly(p.AccrualEndDate),
		paymentYearFraction: p.PaymentYearFraction,
		notional:            p.Notional,
		subPeriodFactors:    append([]float64(nil), p.SubPeriodAccrualFactors...),
		fixingDates:         make([][]time.Time, n),
		weights:             cloneFloats(p.Weights),
		spread:              p.Spread,
	}
	if p.Index != nil {
		ix := *p.Index
		d.index = &ix
	}

	var prev time.Time
	for i, row := range p.FixingDates {
		if len(row) == 0 {
			return nil, invalidf("sub-period %d has no observations", i)
		}
		if len(p.Weights[i]) != len(row) {
			return nil, invalidf("sub-period %d: %d weights for %d fixing dates", i, len(p.Weights[i]), len(row))
		}
		d.fixingDates[i] = make([]time.Time, len(row))
		for j, fd := range row {
			fd = utils.DateOnly(fd)
			if fd.Before(prev) {
				return nil, invalidf("fixing date %s of sub-period %d is before %s", utils.DateKey(fd), i, utils.DateKey(prev))
			}
			if fd.After(d.paymentDate) {
				return nil, invalidf("fixing date %s of sub-period %d is after payment date %s", utils.DateKey(fd), i, utils.DateKey(d.paymentDate))
			}
			d.fixingDates[i][j] = fd
			prev = fd
		}
	}

	supplied := 0
	for _, present := range []bool{
		p.FixingPeriodStartDates != nil,
		p.FixingPeriodEndDates != nil,
		p.FixingPeriodAccrualFactors != nil,
	} {
		if present {
			supplied++
		}
	}
	switch supplied {
	case 3:
		if err := checkShape("fixing period start dates", d.fixingDates, len(p.FixingPeriodStartDates), func(i int) int { return len(p.FixingPeriodStartDates[i]) }); err != nil {
			return nil, err
		}
		if err := checkShape("fixing period end dates", d.fixingDates, len(p.FixingPeriodEndDates), func(i int) int { return len(p.FixingPeriodEndDates[i]) }); err != nil {
			return nil, err
		}
		if err := checkShape("fixing period accrual factors", d.fixingDates, len(p.FixingPeriodAccrualFactors), func(i int) int { return len(p.FixingPeriodAccrualFactors[i]) }); err != nil {
			return nil, err
		}
		d.periodStartDates = cloneDates(p.FixingPeriodStartDates)
		d.periodEndDates = cloneDates(p.FixingPeriodEndDates)
		d.periodFactors = cloneFloats(p.FixingPeriodAccrualFactors)
	case 0:
		if d.index == nil {
			return nil, invalidf("index is required to derive fixing periods")
		}
		if err := d.index.Validate(); err != nil {
			return nil, invalidf("%v", err)
		}
		cal := p.Calendar
		if cal == "" {
			cal = calendar.WEEKDAYS
		}
		d.derivePeriods(cal)
	default:
		return nil, invalidf("fixing period start dates, end dates and accrual factors must be supplied together")
	}
	return d, nil
}

func (d *Definition) derivePeriods(cal calendar.CalendarID) {
	n := len(d.fixingDates)
	d.periodStartDates = make([][]time.Time, n)
	d.periodEndDates = make([][]time.Time, n)
	d.periodFactors = make([][]float64, n)
	for i, row := range d.fixingDates {
		d.periodStartDates[i] = make([]time.Time, len(row))
		d.periodEndDates[i] = make([]time.Time, len(row))
		d.periodFactors[i] = make([]float64, len(row))
		for j, fd := range row {
			d.periodStartDates[i][j], d.periodEndDates[i][j], d.periodFactors[i][j] = d.index.FixingPeriod(cal, fd)
		}
	}
}

func checkShape(name string, ref [][]time.Time, rows int, cols func(int) int) error {
	if rows != len(ref) {
		return invalidf("%s: %d rows for %d sub-periods", name, rows, len(ref))
	}
	for i := range ref {
		if cols(i) != len(ref[i]) {
			return invalidf("%s: sub-period %d has %d entries, want %d", name, i, cols(i), len(ref[i]))
		}
	}
	return nil
}

// WithNotional returns a copy of d with a different notional.
func (d *Definition) WithNotional(notional float64) *Definition {
	cp := *d
	cp.notional = notional
	return &cp
}

func (d *Definition) Currency() string { return d.currency }
func (d *Definition) PaymentDate() time.Time { return d.paymentDate }
func (d *Definition) AccrualStartDate() time.Time { return d.accrualStartDate }
func (d *Definition) AccrualEndDate() time.Time { return d.accrualEndDate }
func (d *Definition) PaymentYearFraction() float64 { return d.paymentYearFraction }
func (d *Definition) Notional() float64 { return d.notional }
func (d *Definition) Spread() float64 { return d.spread }
func (d *Definition) SubPeriods() int { return len(d.fixingDates) }
func (d *Definition) Observations(i int) int { return len(d.fixingDates[i]) }
func (d *Definition) FirstFixingDate() time.Time { return d.fixingDates[0][0] }
func (d *Definition) SubPeriodAccrualFactors() []float64 {
	return append([]float64(nil), d.subPeriodFactors...)
}

// LastFixingDate is the final observation of the final sub-period.
func (d *Definition) LastFixingDate() time.Time {
	last := d.fixingDates[len(d.fixingDates)-1]
	return last[len(last)-1]
}

// IndexName is empty when no index was supplied.
func (d *Definition) IndexName() string {
	if d.index == nil {
		return ""
	}
	return string(d.index.Name)
}

func (d *Definition) FixingDates() [][]time.Time { return cloneDates(d.fixingDates) }
func (d *Definition) Weights() [][]float64 { return cloneFloats(d.weights) }
func (d *Definition) FixingPeriodStartDates() [][]time.Time { return cloneDates(d.periodStartDates) }
func (d *Definition) FixingPeriodEndDates() [][]time.Time { return cloneDates(d.periodEndDates) }
func (d *Definition) FixingPeriodAccrualFactors() [][]float64 {
	return cloneFloats(d.periodFactors)
}

// Equal reports whether d and o describe the same coupon.
func (d *Definition) Equal(o *Definition) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.currency != o.currency ||
		!d.paymentDate.Equal(o.paymentDate) ||
		!d.accrualStartDate.Equal(o.accrualStartDate) ||
		!d.accrualEndDate.Equal(o.accrualEndDate) ||
		d.paymentYearFraction != o.paymentYearFraction ||
		d.notional != o.notional ||
		d.spread != o.spread {
		return false
	}
	if (d.index == nil) != (o.index == nil) || (d.index != nil && *d.index != *o.index) {
		return false
	}
	return equalFloats(d.subPeriodFactors, o.subPeriodFactors) &&
		equalDateRows(d.fixingDates, o.fixingDates) &&
		equalFloatRows(d.weights, o.weights) &&
		equalDateRows(d.periodStartDates, o.periodStartDates) &&
		equalDateRows(d.periodEndDates, o.periodEndDates) &&
		equalFloatRows(d.periodFactors, o.periodFactors)
}

func cloneDates(m [][]time.Time) [][]time.Time {
	out := make([][]time.Time, len(m))
	for i, row := range m {
		out[i] = append([]time.Time(nil), row...)
	}
	return out
}

func cloneFloats(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloatRows(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFloats(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalDateRows(a, b [][]time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if !a[i][j].Equal(b[i][j]) {
				return false
			}
		}
	}
	return true
}
