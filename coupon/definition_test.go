package coupon_test

import (
	"errors"
	"testing"
	"time"

	"github.com/meenmo/cpnlib/calendar"
	"github.com/meenmo/cpnlib/coupon"
)

func TestNewDefinition_DerivedPeriodsMatchExplicit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ix := euribor1M()

	explicit, err := coupon.NewDefinition(coupon.DefinitionParams{
		Currency:                   "EUR",
		PaymentDate:                paymentDate,
		AccrualStartDate:           accrualStart,
		AccrualEndDate:             accrualEnd,
		PaymentYearFraction:        f.paf,
		Notional:                   notional,
		SubPeriodAccrualFactors:    f.factors,
		FixingDates:                f.fixingDates,
		Weights:                    f.weights,
		FixingPeriodStartDates:     f.def.FixingPeriodStartDates(),
		FixingPeriodEndDates:       f.def.FixingPeriodEndDates(),
		FixingPeriodAccrualFactors: f.def.FixingPeriodAccrualFactors(),
		Index:                      &ix,
		Spread:                     spread,
	})
	if err != nil {
		t.Fatalf("NewDefinition error: %v", err)
	}
	if !explicit.Equal(f.def) || !f.def.Equal(explicit) {
		t.Fatalf("explicit and derived fixing periods should be equal")
	}

	// 2011-01-03 fixes spot 2011-01-05 and ends one month later, rolled.
	starts := f.def.FixingPeriodStartDates()
	ends := f.def.FixingPeriodEndDates()
	if want := time.Date(2011, 1, 5, 0, 0, 0, 0, time.UTC); !starts[0][0].Equal(want) {
		t.Fatalf("start[0][0]: got %s want %s", starts[0][0].Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if want := time.Date(2011, 2, 7, 0, 0, 0, 0, time.UTC); !ends[0][0].Equal(want) {
		t.Fatalf("end[0][0]: got %s want %s", ends[0][0].Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if got := f.def.FixingPeriodAccrualFactors()[0][0]; got != 33./360. {
		t.Fatalf("factor[0][0]: got %v want %v", got, 33./360.)
	}
}

func TestDefinition_WithNotional(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	other := f.def.WithNotional(notional + 1)
	if other.Equal(f.def) {
		t.Fatalf("definitions with different notionals should differ")
	}
	if other.Notional() != notional+1 || f.def.Notional() != notional {
		t.Fatalf("WithNotional modified the receiver or ignored the argument")
	}
	if !other.WithNotional(notional).Equal(f.def) {
		t.Fatalf("restoring the notional should give an equal definition")
	}
}

func TestDefinition_AccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	dates := f.def.FixingDates()
	dates[0][0] = time.Time{}
	w := f.def.Weights()
	w[0][0] = 42

	if f.def.FixingDates()[0][0].IsZero() || f.def.Weights()[0][0] == 42 {
		t.Fatalf("accessor results alias definition state")
	}

	// Mutating the input after construction has no effect either.
	f.fixingDates[0][0] = time.Time{}
	if !f.def.FirstFixingDate().Equal(time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("definition aliases its input")
	}
	if !f.def.LastFixingDate().Equal(time.Date(2011, 6, 27, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("LastFixingDate: got %s", f.def.LastFixingDate().Format("2006-01-02"))
	}
	if f.def.SubPeriods() != numPeriods || f.def.Observations(0) != numObs {
		t.Fatalf("unexpected shape %dx%d", f.def.SubPeriods(), f.def.Observations(0))
	}
}

func TestNewDefinition_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ix := euribor1M()
	base := func() coupon.DefinitionParams {
		return coupon.DefinitionParams{
			Currency:                "EUR",
			PaymentDate:             paymentDate,
			AccrualStartDate:        accrualStart,
			AccrualEndDate:          accrualEnd,
			PaymentYearFraction:     f.paf,
			Notional:                notional,
			SubPeriodAccrualFactors: f.factors,
			FixingDates:             f.def.FixingDates(),
			Weights:                 f.weights,
			Index:                   &ix,
			Calendar:                calendar.WEEKDAYS,
			Spread:                  spread,
		}
	}

	cases := []struct {
		name   string
		mutate func(p *coupon.DefinitionParams)
	}{
		{"no sub-periods", func(p *coupon.DefinitionParams) { p.FixingDates = nil }},
		{"zero payment date", func(p *coupon.DefinitionParams) { p.PaymentDate = time.Time{} }},
		{"non-positive year fraction", func(p *coupon.DefinitionParams) { p.PaymentYearFraction = 0 }},
		{"factor count", func(p *coupon.DefinitionParams) { p.SubPeriodAccrualFactors = p.SubPeriodAccrualFactors[:2] }},
		{"weight rows", func(p *coupon.DefinitionParams) { p.Weights = p.Weights[:5] }},
		{"weight columns", func(p *coupon.DefinitionParams) {
			w := f.def.Weights()
			w[3] = w[3][:4]
			p.Weights = w
		}},
		{"empty row", func(p *coupon.DefinitionParams) {
			d := f.def.FixingDates()
			d[1] = nil
			p.FixingDates = d
		}},
		{"unordered fixings", func(p *coupon.DefinitionParams) {
			d := f.def.FixingDates()
			d[2][0], d[2][1] = d[2][1], d[2][0]
			p.FixingDates = d
		}},
		{"fixing after payment", func(p *coupon.DefinitionParams) {
			p.PaymentDate = f.fixingDates[5][3]
		}},
		{"no index to derive periods", func(p *coupon.DefinitionParams) { p.Index = nil }},
		{"partial fixing periods", func(p *coupon.DefinitionParams) {
			p.FixingPeriodStartDates = f.def.FixingPeriodStartDates()
		}},
		{"fixing period shape", func(p *coupon.DefinitionParams) {
			p.FixingPeriodStartDates = f.def.FixingPeriodStartDates()[:5]
			p.FixingPeriodEndDates = f.def.FixingPeriodEndDates()
			p.FixingPeriodAccrualFactors = f.def.FixingPeriodAccrualFactors()
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := base()
			tc.mutate(&p)
			_, err := coupon.NewDefinition(p)
			if !errors.Is(err, coupon.ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}

	if _, err := coupon.NewDefinition(base()); err != nil {
		t.Fatalf("base params should be valid: %v", err)
	}
}

func TestNewDefinition_RaggedRows(t *testing.T) {
	t.Parallel()

	ix := euribor1M()
	d := func(m time.Month, day int) time.Time { return time.Date(2011, m, day, 0, 0, 0, 0, time.UTC) }
	def, err := coupon.NewDefinition(coupon.DefinitionParams{
		Currency:                "EUR",
		PaymentDate:             d(3, 7),
		AccrualStartDate:        d(1, 5),
		AccrualEndDate:          d(3, 5),
		PaymentYearFraction:     59. / 365.,
		Notional:                1,
		SubPeriodAccrualFactors: []float64{31. / 365., 28. / 365.},
		FixingDates:             [][]time.Time{{d(1, 3)}, {d(2, 3), d(2, 17)}},
		Weights:                 [][]float64{{1}, {0.5, 0.5}},
		Index:                   &ix,
	})
	if err != nil {
		t.Fatalf("NewDefinition error: %v", err)
	}

	fc := mustFloating(t)(coupon.ConvertWithoutFixings(def, d(1, 1)))
	if len(fc.FixingTimes[0]) != 1 || len(fc.FixingTimes[1]) != 2 {
		t.Fatalf("ragged rows not preserved: %v", fc.FixingTimes)
	}
}
