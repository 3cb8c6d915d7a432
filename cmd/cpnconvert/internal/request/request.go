// Package request defines the JSON schema read and written by cpnconvert.
//
// Conventions:
// - dates are "YYYY-MM-DD"
// - rates, spreads and fixings are decimals (0.01 means 1%)
package request

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/meenmo/cpnlib/calendar"
	"github.com/meenmo/cpnlib/coupon"
	"github.com/meenmo/cpnlib/curve"
	"github.com/meenmo/cpnlib/engine"
	"github.com/meenmo/cpnlib/market"
	"github.com/meenmo/cpnlib/marketdata/fixings"
	"github.com/meenmo/cpnlib/utils"
)

// Coupon is one conversion request.
type Coupon struct {
	ID string `json:"id,omitempty"`

	Currency         string `json:"currency"           validate:"required,iso4217"`
	PaymentDate      string `json:"payment_date"       validate:"required,datetime=2006-01-02"`
	AccrualStartDate string `json:"accrual_start_date" validate:"required,datetime=2006-01-02"`
	AccrualEndDate   string `json:"accrual_end_date"   validate:"required,datetime=2006-01-02"`

	// PaymentYearFraction defaults to the accrual period under DayCount.
	PaymentYearFraction float64 `json:"payment_year_fraction" validate:"gte=0"`
	DayCount            string  `json:"day_count"` // default ACT/365

	Notional                float64     `json:"notional"                   validate:"required"`
	SubPeriodAccrualFactors []float64   `json:"sub_period_accrual_factors" validate:"required,min=1,dive,gt=0"`
	FixingDates             [][]string  `json:"fixing_dates"               validate:"required,min=1,dive,min=1,dive,datetime=2006-01-02"`
	Weights                 [][]float64 `json:"weights"` // optional, equal weights per sub-period
	Index                   string      `json:"index"`    // EURIBOR1M, TIBOR3M, CD91D, ...
	Calendar                string      `json:"calendar"` // default WEEKDAYS
	Spread                  float64     `json:"spread"`

	// Fixing periods shaped like FixingDates. Either all three are given or
	// none, in which case they are derived from Index.
	FixingPeriodStartDates     [][]string  `json:"fixing_period_start_dates,omitempty"     validate:"omitempty,dive,dive,datetime=2006-01-02"`
	FixingPeriodEndDates       [][]string  `json:"fixing_period_end_dates,omitempty"       validate:"omitempty,dive,dive,datetime=2006-01-02"`
	FixingPeriodAccrualFactors [][]float64 `json:"fixing_period_accrual_factors,omitempty" validate:"omitempty,dive,dive,gt=0"`

	ReferenceDate string `json:"reference_date" validate:"required,datetime=2006-01-02"`

	// At most one fixing source may be given.
	Fixings      map[string]float64 `json:"fixings,omitempty"`
	FixingsFile  string             `json:"fixings_file,omitempty"`
	FixingsIndex string             `json:"fixings_index,omitempty"`

	ZeroCurve    *Curve `json:"zero_curve,omitempty"`
	ForwardCurve *Curve `json:"forward_curve,omitempty"` // defaults to ZeroCurve
}

// Curve is a zero curve on an ACT/365F time axis. Flat, when set, wins.
type Curve struct {
	Flat  *float64  `json:"flat,omitempty"`
	Times []float64 `json:"times,omitempty"`
	Rates []float64 `json:"rates,omitempty"`
}

// Output is the JSON written per coupon.
type Output struct {
	ID              string                        `json:"id,omitempty"`
	Kind            coupon.Kind                   `json:"kind,omitempty"`
	Fixed           *coupon.FixedCoupon           `json:"fixed,omitempty"`
	FlatCompounding *coupon.FlatCompoundingCoupon `json:"flat_compounding,omitempty"`
	Amount          string                        `json:"amount,omitempty"`
	PV              *float64                      `json:"pv,omitempty"`
	Error           string                        `json:"error,omitempty"`
}

var errCurveRequired = errors.New("zero_curve is required")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field formats before any date arithmetic.
func (c Coupon) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
	}
	return err
}

// Definition builds the coupon definition.
func (c Coupon) Definition() (*coupon.Definition, error) {
	payment, err := parseField("payment_date", c.PaymentDate)
	if err != nil {
		return nil, err
	}
	start, err := parseField("accrual_start_date", c.AccrualStartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseField("accrual_end_date", c.AccrualEndDate)
	if err != nil {
		return nil, err
	}
	if c.Notional == 0 {
		return nil, fmt.Errorf("notional is required")
	}

	var ix *market.IborIndex
	if strings.TrimSpace(c.Index) != "" {
		v, err := market.IndexByName(strings.ToUpper(strings.TrimSpace(c.Index)))
		if err != nil {
			return nil, err
		}
		ix = &v
	}

	paf := c.PaymentYearFraction
	if paf == 0 {
		dc := c.DayCount
		if dc == "" {
			dc = utils.Act365
		}
		if !utils.IsSupportedDayCount(dc) {
			return nil, fmt.Errorf("unsupported day_count %q", c.DayCount)
		}
		paf = utils.YearFraction(start, end, dc)
	}

	dates, err := parseDates("fixing_dates", c.FixingDates)
	if err != nil {
		return nil, err
	}
	periodStarts, err := parseDates("fixing_period_start_dates", c.FixingPeriodStartDates)
	if err != nil {
		return nil, err
	}
	periodEnds, err := parseDates("fixing_period_end_dates", c.FixingPeriodEndDates)
	if err != nil {
		return nil, err
	}

	weights := c.Weights
	if weights == nil {
		weights = make([][]float64, len(dates))
		for i, row := range dates {
			weights[i] = make([]float64, len(row))
			for j := range row {
				weights[i][j] = 1 / float64(len(row))
			}
		}
	}

	cal := calendar.CalendarID(strings.ToUpper(strings.TrimSpace(c.Calendar)))
	return coupon.NewDefinition(coupon.DefinitionParams{
		Currency:                c.Currency,
		PaymentDate:             payment,
		AccrualStartDate:        start,
		AccrualEndDate:          end,
		PaymentYearFraction:     paf,
		Notional:                c.Notional,
		SubPeriodAccrualFactors: c.SubPeriodAccrualFactors,
		FixingDates:             dates,
		Weights:                 weights,

		FixingPeriodStartDates:     periodStarts,
		FixingPeriodEndDates:       periodEnds,
		FixingPeriodAccrualFactors: c.FixingPeriodAccrualFactors,

		Index:    ix,
		Calendar: cal,
		Spread:   c.Spread,
	})
}

// Job turns the request into an engine job. withPV requires a zero curve.
func (c Coupon) Job(withPV bool) (engine.Job, error) {
	if err := c.Validate(); err != nil {
		return engine.Job{}, err
	}
	def, err := c.Definition()
	if err != nil {
		return engine.Job{}, err
	}
	ref, err := parseField("reference_date", c.ReferenceDate)
	if err != nil {
		return engine.Job{}, err
	}
	job := engine.Job{ID: c.ID, Definition: def, ReferenceDate: ref}

	sources := 0
	for _, set := range []bool{c.Fixings != nil, c.FixingsFile != "", c.FixingsIndex != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return engine.Job{}, fmt.Errorf("fixings, fixings_file and fixings_index are mutually exclusive")
	}
	switch {
	case c.Fixings != nil:
		job.Fixings = fixings.NewMapSeries(c.Fixings)
	case c.FixingsFile != "":
		ts, err := loadFixingsFile(c.FixingsFile, def.IndexName())
		if err != nil {
			return engine.Job{}, err
		}
		job.Fixings = ts
	case c.FixingsIndex != "":
		job.FixingIndex = c.FixingsIndex
	}

	if withPV {
		if c.ZeroCurve == nil {
			return engine.Job{}, errCurveRequired
		}
		disc, err := c.ZeroCurve.build()
		if err != nil {
			return engine.Job{}, fmt.Errorf("zero_curve: %v", err)
		}
		job.Discount, job.Forward = disc, disc
		if c.ForwardCurve != nil {
			fwd, err := c.ForwardCurve.build()
			if err != nil {
				return engine.Job{}, fmt.Errorf("forward_curve: %v", err)
			}
			job.Forward = fwd
		}
	}
	return job, nil
}

// NewOutput renders an engine result.
func NewOutput(r engine.Result) Output {
	out := Output{ID: r.JobID}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}
	out.Kind = r.Derivative.Kind()
	switch d := r.Derivative.(type) {
	case *coupon.FixedCoupon:
		out.Fixed = d
		out.Amount = d.Amount().String()
	case *coupon.FlatCompoundingCoupon:
		out.FlatCompounding = d
	}
	if r.Priced {
		pv := r.PV
		out.PV = &pv
	}
	return out
}

func (c *Curve) build() (*curve.ZeroCurve, error) {
	if c.Flat != nil {
		return curve.Flat(*c.Flat), nil
	}
	return curve.NewZeroCurve(c.Times, c.Rates)
}

func loadFixingsFile(path, index string) (*fixings.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixings_file: %w", err)
	}
	defer f.Close()

	name, ts, err := fixings.LoadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("fixings_file %s: %w", path, err)
	}
	if name != "" && index != "" && !strings.EqualFold(name, index) {
		return nil, fmt.Errorf("fixings_file %s holds %s fixings, coupon index is %s", path, name, index)
	}
	return ts, nil
}

func parseField(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	d, err := utils.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %v", name, err)
	}
	return d, nil
}

// parseDates parses a date matrix; nil stays nil.
func parseDates(name string, rows [][]string) ([][]time.Time, error) {
	if rows == nil {
		return nil, nil
	}
	out := make([][]time.Time, len(rows))
	for i, row := range rows {
		out[i] = make([]time.Time, len(row))
		for j, v := range row {
			d, err := utils.ParseDate(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s[%d][%d]: %v", name, i, j, err)
			}
			out[i][j] = d
		}
	}
	return out, nil
}
