package market

import (
	"fmt"
	"time"

	"github.com/meenmo/cpnlib/calendar"
	"github.com/meenmo/cpnlib/utils"
)

// ReferenceIndex enumerates supported floating benchmarks.
type ReferenceIndex string

const (
	EURIBOR1M ReferenceIndex = "EURIBOR1M"
	EURIBOR3M ReferenceIndex = "EURIBOR3M"
	EURIBOR6M ReferenceIndex = "EURIBOR6M"
	TIBOR3M   ReferenceIndex = "TIBOR3M"
	TIBOR6M   ReferenceIndex = "TIBOR6M"
	CD91D     ReferenceIndex = "CD91D"
)

// IborIndex captures the conventions of a term Ibor index.
//
// The fixing period of an observation starts SpotLag business days after the
// fixing date and runs for TenorMonths, rolled with BusinessDay and the
// end-of-month rule.
type IborIndex struct {
	Name        ReferenceIndex
	Currency    string
	TenorMonths int
	SpotLag     int
	DayCount    string
	BusinessDay calendar.BusinessDayConvention
	EndOfMonth  bool
}

// Validate checks that the index can derive fixing periods.
func (ix IborIndex) Validate() error {
	if ix.TenorMonths <= 0 {
		return fmt.Errorf("IborIndex %s: tenor must be positive, got %d months", ix.Name, ix.TenorMonths)
	}
	if ix.SpotLag < 0 {
		return fmt.Errorf("IborIndex %s: negative spot lag %d", ix.Name, ix.SpotLag)
	}
	if !utils.IsSupportedDayCount(ix.DayCount) {
		return fmt.Errorf("IborIndex %s: unsupported day count %q", ix.Name, ix.DayCount)
	}
	return nil
}

// FixingPeriod returns the start date, end date and accrual factor of the
// deposit period observed on fixingDate.
func (ix IborIndex) FixingPeriod(cal calendar.CalendarID, fixingDate time.Time) (start, end time.Time, accrual float64) {
	start = calendar.AddBusinessDays(cal, fixingDate, ix.SpotLag)
	end = calendar.AddMonthsWithRoll(cal, ix.BusinessDay, start, ix.TenorMonths, ix.EndOfMonth)
	accrual = utils.YearFraction(start, end, ix.DayCount)
	return start, end, accrual
}

// Euribor returns the EUR Euribor index for the given tenor in months.
func Euribor(tenorMonths int) IborIndex {
	name := ReferenceIndex(fmt.Sprintf("EURIBOR%dM", tenorMonths))
	return IborIndex{
		Name:        name,
		Currency:    "EUR",
		TenorMonths: tenorMonths,
		SpotLag:     2,
		DayCount:    utils.Act360,
		BusinessDay: calendar.ModifiedFollowing,
		EndOfMonth:  true,
	}
}

// Tibor returns the JPY Tibor index for the given tenor in months.
func Tibor(tenorMonths int) IborIndex {
	return IborIndex{
		Name:        ReferenceIndex(fmt.Sprintf("TIBOR%dM", tenorMonths)),
		Currency:    "JPY",
		TenorMonths: tenorMonths,
		SpotLag:     2,
		DayCount:    utils.Act365F,
		BusinessDay: calendar.ModifiedFollowing,
		EndOfMonth:  true,
	}
}

// CD91 returns the KRW 91-day certificate of deposit rate, quoted on a 3M basis.
func CD91() IborIndex {
	return IborIndex{
		Name:        CD91D,
		Currency:    "KRW",
		TenorMonths: 3,
		SpotLag:     1,
		DayCount:    utils.Act365F,
		BusinessDay: calendar.ModifiedFollowing,
		EndOfMonth:  false,
	}
}

// IndexByName resolves one of the preset indices.
func IndexByName(name string) (IborIndex, error) {
	switch ReferenceIndex(name) {
	case EURIBOR1M:
		return Euribor(1), nil
	case EURIBOR3M:
		return Euribor(3), nil
	case EURIBOR6M:
		return Euribor(6), nil
	case TIBOR3M:
		return Tibor(3), nil
	case TIBOR6M:
		return Tibor(6), nil
	case CD91D:
		return CD91(), nil
	default:
		return IborIndex{}, fmt.Errorf("unknown index %q", name)
	}
}
