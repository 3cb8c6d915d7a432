package coupon

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/cpnlib/marketdata/fixings"
	"github.com/meenmo/cpnlib/utils"
)

// Converter turns Definitions into Derivatives. It holds no mutable state and
// is safe for concurrent use.
type Converter struct {
	timeFn  TimeFunc
	log     *zap.Logger
	observe func(Kind, error)
}

// Option configures a Converter.
type Option func(*Converter)

// WithTimeFunc replaces the date-to-time policy (default TimeBetween).
func WithTimeFunc(fn TimeFunc) Option {
	return func(c *Converter) {
		if fn != nil {
			c.timeFn = fn
		}
	}
}

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver registers a callback invoked after every conversion with the
// resulting kind (empty on failure) and error.
func WithObserver(fn func(Kind, error)) Option {
	return func(c *Converter) {
		c.observe = fn
	}
}

// NewConverter creates a Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		timeFn: TimeBetween,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultConverter = NewConverter()

// Convert converts def at referenceDate using the default Converter.
func Convert(def *Definition, referenceDate time.Time, series fixings.Series) (Derivative, error) {
	return defaultConverter.Convert(def, referenceDate, series)
}

// ConvertWithoutFixings converts def when no fixing data is available.
// It fails with a *MissingFixingDataError once referenceDate is past the first fixing date.
func ConvertWithoutFixings(def *Definition, referenceDate time.Time) (Derivative, error) {
	return defaultConverter.Convert(def, referenceDate, nil)
}

// Convert fixes def against series as of referenceDate.
//
// Fixing dates are compared with referenceDate by calendar day. A sub-period
// is settled once its last fixing date is on or before the reference day and
// every observation has a value; a value missing strictly before the
// reference day is an error, while one missing on the reference day is left
// to be projected.
func (c *Converter) Convert(def *Definition, referenceDate time.Time, series fixings.Series) (Derivative, error) {
	d, err := c.convert(def, referenceDate, series)
	if c.observe != nil {
		var kind Kind
		if d != nil {
			kind = d.Kind()
		}
		c.observe(kind, err)
	}
	if err != nil {
		c.log.Debug("coupon conversion failed",
			zap.Time("reference_date", referenceDate),
			zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (c *Converter) convert(def *Definition, referenceDate time.Time, series fixings.Series) (Derivative, error) {
	if def == nil {
		return nil, fmt.Errorf("Convert: %w: nil definition", ErrInvalidDefinition)
	}
	refDay := utils.DateOnly(referenceDate)
	if refDay.After(def.paymentDate) {
		return nil, &InvalidReferenceDateError{ReferenceDate: referenceDate, PaymentDate: def.paymentDate}
	}
	if fixings.IsEmpty(series) {
		if first := def.FirstFixingDate(); refDay.After(first) {
			return nil, &MissingFixingDataError{Date: first, ReferenceDate: referenceDate, NoSeries: true}
		}
		series = nil
	}
	lookup := func(d time.Time) (float64, bool) {
		if series == nil {
			return 0, false
		}
		return series.Value(d)
	}

	n := len(def.fixingDates)
	accrued := 0.0
	rateFixed := 0.0
	k, fixed := 0, 0
	for ; k < n; k++ {
		row := def.fixingDates[k]
		forward := 0.0
		j := 0
		for ; j < len(row) && !row[j].After(refDay); j++ {
			v, ok := lookup(row[j])
			if !ok {
				if row[j].Before(refDay) {
					return nil, &MissingFixingDataError{Date: row[j], ReferenceDate: referenceDate}
				}
				break
			}
			forward += def.weights[k][j] * v
		}
		if j < len(row) {
			fixed, rateFixed = j, forward
			break
		}
		accrued = flatCompound(accrued, forward, def.spread, def.subPeriodFactors[k])
	}

	if k == n {
		c.log.Debug("coupon fully fixed",
			zap.Time("reference_date", referenceDate),
			zap.Float64("accrued", accrued))
		return &FixedCoupon{
			Currency:            def.currency,
			PaymentTime:         c.timeFn(referenceDate, def.paymentDate),
			PaymentYearFraction: def.paymentYearFraction,
			Notional:            def.notional,
			FixedRate:           accrued / def.paymentYearFraction,
			AccrualStartDate:    def.accrualStartDate,
			AccrualEndDate:      def.accrualEndDate,
		}, nil
	}

	c.log.Debug("coupon partially fixed",
		zap.Time("reference_date", referenceDate),
		zap.Int("settled_sub_periods", k),
		zap.Int("fixed_observations", fixed))
	return c.floating(def, referenceDate, k, fixed, accrued, rateFixed), nil
}

// floating emits sub-periods k..N-1, dropping the first fixed observations of sub-period k.
func (c *Converter) floating(def *Definition, referenceDate time.Time, k, fixed int, accrued, rateFixed float64) *FlatCompoundingCoupon {
	rows := len(def.fixingDates) - k
	out := &FlatCompoundingCoupon{
		Currency:                   def.currency,
		PaymentTime:                c.timeFn(referenceDate, def.paymentDate),
		PaymentYearFraction:        def.paymentYearFraction,
		Notional:                   def.notional,
		PaymentAccrualFactors:      append([]float64(nil), def.subPeriodFactors[k:]...),
		IndexName:                  def.IndexName(),
		FixingTimes:                make([][]float64, rows),
		Weights:                    make([][]float64, rows),
		FixingPeriodStartTimes:     make([][]float64, rows),
		FixingPeriodEndTimes:       make([][]float64, rows),
		FixingPeriodAccrualFactors: make([][]float64, rows),
		AmountAccrued:              accrued,
		RateFixed:                  rateFixed,
		Spread:                     def.spread,
	}
	for r := 0; r < rows; r++ {
		i := k + r
		from := 0
		if r == 0 {
			from = fixed
		}
		out.FixingTimes[r] = timesOf(c.timeFn, referenceDate, def.fixingDates[i][from:])
		out.Weights[r] = append([]float64(nil), def.weights[i][from:]...)
		out.FixingPeriodStartTimes[r] = timesOf(c.timeFn, referenceDate, def.periodStartDates[i][from:])
		out.FixingPeriodEndTimes[r] = timesOf(c.timeFn, referenceDate, def.periodEndDates[i][from:])
		out.FixingPeriodAccrualFactors[r] = append([]float64(nil), def.periodFactors[i][from:]...)
	}
	return out
}
