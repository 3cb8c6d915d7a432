package curve_test

import (
	"math"
	"testing"

	"github.com/meenmo/cpnlib/curve"
)

func TestZeroCurve_InterpolatesAndExtrapolatesFlat(t *testing.T) {
	t.Parallel()

	c, err := curve.NewZeroCurve([]float64{2, 1}, []float64{0.03, 0.02})
	if err != nil {
		t.Fatalf("NewZeroCurve error: %v", err)
	}
	if got := c.ZeroRate(1.5); math.Abs(got-0.025) > 1e-15 {
		t.Fatalf("ZeroRate(1.5): got %.15f", got)
	}
	if got := c.ZeroRate(0.1); got != 0.02 {
		t.Fatalf("ZeroRate(0.1): got %.15f", got)
	}
	if got := c.ZeroRate(5); got != 0.03 {
		t.Fatalf("ZeroRate(5): got %.15f", got)
	}
	if got, want := c.DiscountFactor(2), math.Exp(-0.06); math.Abs(got-want) > 1e-15 {
		t.Fatalf("DiscountFactor(2): got %.15f want %.15f", got, want)
	}
}

func TestZeroCurve_Forward(t *testing.T) {
	t.Parallel()

	c := curve.Flat(0.01)
	got := c.Forward(0.5, 1.0, 0.5)
	want := (math.Exp(0.005) - 1) / 0.5
	if math.Abs(got-want) > 1e-14 {
		t.Fatalf("Forward: got %.15f want %.15f", got, want)
	}
}

func TestNewZeroCurve_RejectsBadPillars(t *testing.T) {
	t.Parallel()

	if _, err := curve.NewZeroCurve(nil, nil); err == nil {
		t.Fatalf("expected error for empty curve")
	}
	if _, err := curve.NewZeroCurve([]float64{1, 1}, []float64{0.01, 0.02}); err == nil {
		t.Fatalf("expected error for duplicate pillar")
	}
}
