package coupon

import (
	"errors"
	"fmt"
)

// DiscountCurve gives discount factors on the derivative's time axis.
type DiscountCurve interface {
	DiscountFactor(t float64) float64
}

// ForwardCurve projects a simply compounded index rate for a fixing period
// given on the derivative's time axis.
type ForwardCurve interface {
	Forward(start, end, accrualFactor float64) float64
}

// ErrNilCurve is returned when a required curve argument is nil.
var ErrNilCurve = errors.New("nil curve")

// CompoundedAmount projects the remaining observations from fwd and returns
// the flat-compounded amount per unit notional over the whole coupon.
func (c *FlatCompoundingCoupon) CompoundedAmount(fwd ForwardCurve) float64 {
	accrued := c.AmountAccrued
	for i, af := range c.PaymentAccrualFactors {
		rate := 0.0
		if i == 0 {
			rate = c.RateFixed
		}
		for j, w := range c.Weights[i] {
			rate += w * fwd.Forward(c.FixingPeriodStartTimes[i][j], c.FixingPeriodEndTimes[i][j], c.FixingPeriodAccrualFactors[i][j])
		}
		accrued = flatCompound(accrued, rate, c.Spread, af)
	}
	return accrued
}

// PresentValue discounts a converted coupon. fwd is only needed for a
// *FlatCompoundingCoupon and may be nil for a *FixedCoupon.
func PresentValue(d Derivative, disc DiscountCurve, fwd ForwardCurve) (float64, error) {
	if disc == nil {
		return 0, fmt.Errorf("PresentValue: discount: %w", ErrNilCurve)
	}
	switch cpn := d.(type) {
	case *FixedCoupon:
		return disc.DiscountFactor(cpn.PaymentTime) * cpn.Notional * cpn.FixedRate * cpn.PaymentYearFraction, nil
	case *FlatCompoundingCoupon:
		if fwd == nil {
			return 0, fmt.Errorf("PresentValue: forward: %w", ErrNilCurve)
		}
		return disc.DiscountFactor(cpn.PaymentTime) * cpn.Notional * cpn.CompoundedAmount(fwd), nil
	default:
		return 0, fmt.Errorf("PresentValue: unsupported derivative %T", d)
	}
}
