package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names a Derivative variant.
type Kind string

const (
	KindFixed           Kind = "FIXED"
	KindFlatCompounding Kind = "FLAT_COMPOUNDING"
)

// Derivative is the time-relative result of Convert. It is either a
// *FixedCoupon or a *FlatCompoundingCoupon; use a type switch to branch.
type Derivative interface {
	Kind() Kind
	isDerivative()
}

// FixedCoupon is a coupon whose every sub-period has fixed.
type FixedCoupon struct {
	Currency            string    `json:"currency"`
	PaymentTime         float64   `json:"payment_time"`
	PaymentYearFraction float64   `json:"payment_year_fraction"`
	Notional            float64   `json:"notional"`
	FixedRate           float64   `json:"fixed_rate"`
	AccrualStartDate    time.Time `json:"accrual_start_date"`
	AccrualEndDate      time.Time `json:"accrual_end_date"`
}

func (*FixedCoupon) Kind() Kind { return KindFixed }
func (*FixedCoupon) isDerivative() {}

// Amount is the cash paid, rounded to the currency's minor unit.
func (c *FixedCoupon) Amount() decimal.Decimal {
	amt := decimal.NewFromFloat(c.Notional).
		Mul(decimal.NewFromFloat(c.FixedRate)).
		Mul(decimal.NewFromFloat(c.PaymentYearFraction))
	return amt.Round(minorUnits(c.Currency))
}

// FlatCompoundingCoupon is a coupon with observations still to be projected.
//
// Row 0 of the per-observation matrices is the first sub-period that is not
// fully fixed; its already fixed observations are removed and folded into
// RateFixed. AmountAccrued is the flat-compounded amount, per unit notional, of
// the sub-periods that fixed entirely.
type FlatCompoundingCoupon struct {
	Currency                   string      `json:"currency"`
	PaymentTime                float64     `json:"payment_time"`
	PaymentYearFraction        float64     `json:"payment_year_fraction"`
	Notional                   float64     `json:"notional"`
	PaymentAccrualFactors      []float64   `json:"payment_accrual_factors"`
	IndexName                  string      `json:"index,omitempty"`
	FixingTimes                [][]float64 `json:"fixing_times"`
	Weights                    [][]float64 `json:"weights"`
	FixingPeriodStartTimes     [][]float64 `json:"fixing_period_start_times"`
	FixingPeriodEndTimes       [][]float64 `json:"fixing_period_end_times"`
	FixingPeriodAccrualFactors [][]float64 `json:"fixing_period_accrual_factors"`
	AmountAccrued              float64     `json:"amount_accrued"`
	RateFixed                  float64     `json:"rate_fixed"`
	Spread                     float64     `json:"spread"`
}

func (*FlatCompoundingCoupon) Kind() Kind { return KindFlatCompounding }
func (*FlatCompoundingCoupon) isDerivative() {}

// SubPeriods is the number of sub-periods still to compound.
func (c *FlatCompoundingCoupon) SubPeriods() int {
	return len(c.PaymentAccrualFactors)
}

// flatCompound accrues one sub-period: interest on principal at forward plus
// spread, and interest on the accrued amount at forward only.
func flatCompound(accrued, forward, spread, accrualFactor float64) float64 {
	return accrued + ((forward+spread)*accrualFactor + accrued*forward*accrualFactor)
}

func minorUnits(ccy string) int32 {
	switch ccy {
	case "JPY", "KRW":
		return 0
	default:
		return 2
	}
}
