package domain

import (
	"errors"

	"github.com/cimillas/hangout-planner/internal/calendar"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrDatesRequired        = errors.New("startDate and endDate are required")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange         = calendar.ErrInvalidRange
	ErrRangeTooLong         = errors.New("date range too long")
	ErrNameRequired         = errors.New("name required")
	ErrUnavailableRequired  = errors.New("unavailableDates must be an array")
	ErrInvalidWeekday       = calendar.ErrInvalidWeekday
	ErrEventIDConflict      = errors.New("event id already exists")
	ErrIDCollisionExhausted = errors.New("could not allocate a unique event id")
)

// IsValidation reports whether err is a client mistake that no retry can fix.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrDatesRequired,
		ErrInvalidDate,
		ErrInvalidRange,
		ErrRangeTooLong,
		ErrNameRequired,
		ErrUnavailableRequired,
		ErrInvalidWeekday,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
