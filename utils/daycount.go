package utils

import (
	"time"
)

// Day count convention names accepted by YearFraction.
const (
	Act360  = "ACT/360"
	Act365  = "ACT/365"
	Act365F = "ACT/365F"
	Dc30E   = "30E/360"
	Dc30    = "30/360"
)

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365, ACT/365F, 30E/360, 30/360.
// Unknown conventions fall back to ACT/365F.
//
// Actual conventions count calendar days, so the time-of-day of either argument is ignored.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case Act360:
		return float64(DaysBetween(start, end)) / 360.0
	case Act365, Act365F:
		return float64(DaysBetween(start, end)) / 365.0
	case Dc30E, Dc30:
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return float64(DaysBetween(start, end)) / 365.0
	}
}

// IsSupportedDayCount reports whether YearFraction recognises the convention.
func IsSupportedDayCount(convention string) bool {
	switch convention {
	case Act360, Act365, Act365F, Dc30E, Dc30:
		return true
	default:
		return false
	}
}
