package coupon

import (
	"time"

	"github.com/meenmo/cpnlib/utils"
)

// TimeFunc converts an absolute date into a time offset, in years, from the reference date.
// Dates before the reference map to negative times.
type TimeFunc func(reference, date time.Time) float64

// TimeBetween is the default TimeFunc: actual calendar days over 365.
func TimeBetween(reference, date time.Time) float64 {
	return float64(utils.DaysBetween(reference, date)) / 365.0
}

func timesOf(fn TimeFunc, reference time.Time, dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = fn(reference, d)
	}
	return out
}
