package coupon_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/cpnlib/coupon"
	"github.com/meenmo/cpnlib/curve"
)

// constForward projects the same rate for every fixing period.
type constForward float64

func (c constForward) Forward(_, _, _ float64) float64 { return float64(c) }

func TestCompoundedAmount_MatchesFullyFixedCoupon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	series := f.fullSeries(t)
	want := f.accruedAt(numPeriods)

	// Projecting the flat fixing from any reference date must reproduce the
	// amount of the coupon once every observation has fixed.
	for _, ref := range []time.Time{
		f.fixingDates[0][0].AddDate(0, 0, -10),
		f.fixingDates[1][2],
		f.fixingDates[2][3].AddDate(0, 0, -1),
		f.fixingDates[2][4],
		f.fixingDates[5][3],
	} {
		fc := mustFloating(t)(coupon.Convert(f.def, ref, series))
		if got := fc.CompoundedAmount(constForward(flatFixing)); math.Abs(got-want) > 1e-14 {
			t.Fatalf("ref %s: got %.16f want %.16f", ref.Format("2006-01-02"), got, want)
		}
	}

	d, err := coupon.Convert(f.def, f.fixingDates[5][4], series)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	fixed := d.(*coupon.FixedCoupon)
	if math.Abs(fixed.FixedRate*fixed.PaymentYearFraction-want) > 1e-14 {
		t.Fatalf("fixed amount: got %.16f want %.16f", fixed.FixedRate*fixed.PaymentYearFraction, want)
	}
}

func TestPresentValue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	series := f.fullSeries(t)
	disc := curve.Flat(0.02)

	ref := f.fixingDates[2][3].AddDate(0, 0, -1)
	d, err := coupon.Convert(f.def, ref, series)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	fc := d.(*coupon.FlatCompoundingCoupon)
	pv, err := coupon.PresentValue(d, disc, constForward(flatFixing))
	if err != nil {
		t.Fatalf("PresentValue error: %v", err)
	}
	want := math.Exp(-0.02*fc.PaymentTime) * notional * f.accruedAt(numPeriods)
	if math.Abs(pv-want) > 1e-8 {
		t.Fatalf("floating PV: got %.10f want %.10f", pv, want)
	}

	d, err = coupon.Convert(f.def, f.fixingDates[5][4].AddDate(0, 0, 1), series)
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	fixedPV, err := coupon.PresentValue(d, disc, nil)
	if err != nil {
		t.Fatalf("PresentValue error: %v", err)
	}
	fixed := d.(*coupon.FixedCoupon)
	want = math.Exp(-0.02*fixed.PaymentTime) * notional * f.accruedAt(numPeriods)
	if math.Abs(fixedPV-want) > 1e-8 {
		t.Fatalf("fixed PV: got %.10f want %.10f", fixedPV, want)
	}

	if _, err := coupon.PresentValue(fc, nil, constForward(0)); !errors.Is(err, coupon.ErrNilCurve) {
		t.Fatalf("expected ErrNilCurve for missing discount curve, got %v", err)
	}
	if _, err := coupon.PresentValue(fc, disc, nil); !errors.Is(err, coupon.ErrNilCurve) {
		t.Fatalf("expected ErrNilCurve for missing forward curve, got %v", err)
	}
}

func TestFixedCoupon_AmountRoundsToMinorUnit(t *testing.T) {
	t.Parallel()

	eur := &coupon.FixedCoupon{Currency: "EUR", Notional: 1000000, FixedRate: 0.0312345, PaymentYearFraction: 0.5}
	if got := eur.Amount().String(); got != "15617.25" {
		t.Fatalf("EUR amount: got %s want 15617.25", got)
	}
	jpy := &coupon.FixedCoupon{Currency: "JPY", Notional: 1000000, FixedRate: 0.0312345, PaymentYearFraction: 0.5}
	if got := jpy.Amount().String(); got != "15617" {
		t.Fatalf("JPY amount: got %s want 15617", got)
	}
}
