package coupon

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/cpnlib/utils"
)

var (
	// ErrInvalidReferenceDate is matched by errors.Is for a reference date after the payment date.
	ErrInvalidReferenceDate = errors.New("invalid reference date")
	// ErrMissingFixingData is matched by errors.Is when a required historical fixing is absent.
	ErrMissingFixingData = errors.New("missing fixing data")
	// ErrInvalidDefinition wraps every construction failure of a Definition.
	ErrInvalidDefinition = errors.New("invalid coupon definition")
)

// InvalidReferenceDateError reports a conversion requested after the coupon was paid.
type InvalidReferenceDateError struct {
	ReferenceDate time.Time
	PaymentDate   time.Time
}

func (e *InvalidReferenceDateError) Error() string {
	return "date is after payment date"
}

// Is makes errors.Is(err, ErrInvalidReferenceDate) hold.
func (e *InvalidReferenceDateError) Is(target error) bool {
	return target == ErrInvalidReferenceDate
}

// MissingFixingDataError names the fixing date whose value was required but not found.
//
// NoSeries is set when no fixing data was supplied at all and the reference
// date is already past the first fixing date.
type MissingFixingDataError struct {
	Date          time.Time
	ReferenceDate time.Time
	NoSeries      bool
}

func (e *MissingFixingDataError) Error() string {
	if e.NoSeries {
		return fmt.Sprintf("no fixing data but derivative requested at %s which is after first fixing date %s",
			utils.DateKey(e.ReferenceDate), utils.DateKey(e.Date))
	}
	return fmt.Sprintf("could not get fixing value for date %s", utils.DateKey(e.Date))
}

// Is makes errors.Is(err, ErrMissingFixingData) hold.
func (e *MissingFixingDataError) Is(target error) bool {
	return target == ErrMissingFixingData
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}
