package request_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meenmo/cpnlib/cmd/cpnconvert/internal/request"
	"github.com/meenmo/cpnlib/coupon"
	"github.com/meenmo/cpnlib/engine"
)

const couponJSON = `{
  "id": "cpn-1",
  "currency": "EUR",
  "payment_date": "2011-03-07",
  "accrual_start_date": "2011-01-05",
  "accrual_end_date": "2011-03-05",
  "notional": 1000000,
  "sub_period_accrual_factors": [0.0849315068, 0.0767123288],
  "fixing_dates": [["2011-01-03", "2011-01-10"], ["2011-02-03", "2011-02-10"]],
  "index": "euribor1m",
  "spread": 0.001,
  "reference_date": "2011-02-15"
}`

func parse(t *testing.T) request.Coupon {
	t.Helper()
	var c request.Coupon
	require.NoError(t, json.Unmarshal([]byte(couponJSON), &c))
	return c
}

func TestDefinition_Defaults(t *testing.T) {
	t.Parallel()

	def, err := parse(t).Definition()
	require.NoError(t, err)
	require.InDelta(t, 59./365., def.PaymentYearFraction(), 1e-15)
	require.Equal(t, "EURIBOR1M", def.IndexName())
	require.Equal(t, [][]float64{{0.5, 0.5}, {0.5, 0.5}}, def.Weights())
}

func TestDefinition_Errors(t *testing.T) {
	t.Parallel()

	c := parse(t)
	c.PaymentDate = ""
	_, err := c.Definition()
	require.ErrorContains(t, err, "payment_date is required")

	c = parse(t)
	c.Index = "LIBOR"
	_, err = c.Definition()
	require.Error(t, err)

	c = parse(t)
	c.FixingDates[1][0] = "03/02/2011"
	_, err = c.Definition()
	require.ErrorContains(t, err, "fixing_dates[1][0]")

	c = parse(t)
	c.SubPeriodAccrualFactors = nil
	_, err = c.Definition()
	require.ErrorIs(t, err, coupon.ErrInvalidDefinition)
}

func TestDefinition_ExplicitFixingPeriods(t *testing.T) {
	t.Parallel()

	c := parse(t)
	c.Index = ""
	_, err := c.Definition()
	require.ErrorIs(t, err, coupon.ErrInvalidDefinition)

	c.FixingPeriodStartDates = [][]string{{"2011-01-05", "2011-01-12"}, {"2011-02-07", "2011-02-14"}}
	c.FixingPeriodEndDates = [][]string{{"2011-02-07", "2011-02-14"}, {"2011-03-07", "2011-03-14"}}
	c.FixingPeriodAccrualFactors = [][]float64{{33. / 360., 33. / 360.}, {28. / 360., 28. / 360.}}
	require.NoError(t, c.Validate())
	def, err := c.Definition()
	require.NoError(t, err)
	require.Empty(t, def.IndexName())
	require.Equal(t, c.FixingPeriodAccrualFactors, def.FixingPeriodAccrualFactors())
	require.Equal(t, "2011-03-14", def.FixingPeriodEndDates()[1][1].Format("2006-01-02"))

	partial := c
	partial.FixingPeriodAccrualFactors = nil
	_, err = partial.Definition()
	require.ErrorIs(t, err, coupon.ErrInvalidDefinition)

	bad := parse(t)
	bad.FixingPeriodStartDates = [][]string{{"2011-01-05", "12/01/2011"}, {"2011-02-07", "2011-02-14"}}
	bad.FixingPeriodEndDates = c.FixingPeriodEndDates
	bad.FixingPeriodAccrualFactors = c.FixingPeriodAccrualFactors
	require.ErrorContains(t, bad.Validate(), "fixing_period_start_dates[0][1]")
	_, err = bad.Definition()
	require.ErrorContains(t, err, "invalid fixing_period_start_dates[0][1]")
}

func TestJob_Validate(t *testing.T) {
	t.Parallel()

	c := parse(t)
	c.Currency = "EURO"
	c.ReferenceDate = "15/02/2011"
	_, err := c.Job(false)
	require.ErrorContains(t, err, "Coupon.currency failed \"iso4217\"")
	require.ErrorContains(t, err, "Coupon.reference_date failed \"datetime\"")

	c = parse(t)
	c.SubPeriodAccrualFactors = []float64{0.08, -0.07}
	_, err = c.Job(false)
	require.ErrorContains(t, err, "sub_period_accrual_factors[1]")
}

func TestJob_FixingSources(t *testing.T) {
	t.Parallel()

	c := parse(t)
	c.Fixings = map[string]float64{"2011-01-03": 0.01}
	job, err := c.Job(false)
	require.NoError(t, err)
	require.NotNil(t, job.Fixings)
	require.Nil(t, job.Discount)

	c.FixingsIndex = "EURIBOR1M"
	_, err = c.Job(false)
	require.ErrorContains(t, err, "mutually exclusive")

	c = parse(t)
	c.FixingsIndex = "EURIBOR1M"
	job, err = c.Job(false)
	require.NoError(t, err)
	require.Equal(t, "EURIBOR1M", job.FixingIndex)

	dir := t.TempDir()
	path := filepath.Join(dir, "fixings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: EURIBOR1M\nfixings:\n  - date: \"2011-01-03\"\n    rate: 0.01\n"), 0o600))
	c = parse(t)
	c.FixingsFile = path
	job, err = c.Job(false)
	require.NoError(t, err)
	require.Equal(t, 1, job.Fixings.Len())

	other := filepath.Join(dir, "tibor.yaml")
	require.NoError(t, os.WriteFile(other, []byte("index: TIBOR3M\nfixings: []\n"), 0o600))
	c.FixingsFile = other
	_, err = c.Job(false)
	require.ErrorContains(t, err, "TIBOR3M")
}

func TestJob_Curves(t *testing.T) {
	t.Parallel()

	c := parse(t)
	_, err := c.Job(true)
	require.ErrorContains(t, err, "zero_curve")

	flat := 0.02
	c.ZeroCurve = &request.Curve{Flat: &flat}
	job, err := c.Job(true)
	require.NoError(t, err)
	require.NotNil(t, job.Discount)
	require.Equal(t, job.Discount, job.Forward)

	c.ForwardCurve = &request.Curve{Times: []float64{0.5, 1}, Rates: []float64{0.01, 0.012}}
	job, err = c.Job(true)
	require.NoError(t, err)
	require.NotEqual(t, job.Discount, job.Forward)

	c.ForwardCurve = &request.Curve{Times: []float64{0.5}, Rates: nil}
	_, err = c.Job(true)
	require.ErrorContains(t, err, "forward_curve")
}

func TestNewOutput(t *testing.T) {
	t.Parallel()

	fixed := &coupon.FixedCoupon{Currency: "EUR", Notional: 1000000, FixedRate: 0.02, PaymentYearFraction: 0.25}
	out := request.NewOutput(engine.Result{JobID: "a", Derivative: fixed, PV: 4990, Priced: true})
	require.Equal(t, coupon.KindFixed, out.Kind)
	require.Equal(t, "5000", out.Amount)
	require.NotNil(t, out.PV)
	require.Equal(t, 4990.0, *out.PV)

	out = request.NewOutput(engine.Result{JobID: "b", Err: &coupon.InvalidReferenceDateError{}})
	require.Equal(t, "date is after payment date", out.Error)
	require.Empty(t, out.Kind)
}
