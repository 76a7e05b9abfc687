package calendar

import (
	"errors"
	"fmt"

	"github.com/teambition/rrule-go"
)

var (
	ErrInvalidRange   = errors.New("start date must not be after end date")
	ErrInvalidWeekday = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
)

// ExpandRange returns every day from start to end inclusive, ascending.
func ExpandRange(start, end Day) ([]Day, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	n := start.DaysUntil(end) + 1
	days := make([]Day, 0, n)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days, nil
}

// ExpandTokens parses both tokens and expands them. A malformed token is
// reported as ErrInvalidRange wrapping ErrInvalidDay.
func ExpandTokens(start, end string) ([]Day, error) {
	s, err := ParseDay(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	e, err := ParseDay(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	return ExpandRange(s, e)
}

// Weekday returns 0..6 with Sunday = 0.
func Weekday(d Day) int {
	return int(d.Weekday())
}

var byDay = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// WeekdayDays returns the days in [start, end] that fall on weekday (Sunday = 0).
func WeekdayDays(start, end Day, weekday int) ([]Day, error) {
	if weekday < 0 || weekday > 6 {
		return nil, ErrInvalidWeekday
	}
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start.Time(),
		Until:     end.Time(),
		Byweekday: []rrule.Weekday{byDay[weekday]},
	})
	if err != nil {
		return nil, fmt.Errorf("build weekday rule: %w", err)
	}

	occurrences := r.All()
	days := make([]Day, 0, len(occurrences))
	for _, t := range occurrences {
		days = append(days, FromTime(t.UTC()))
	}
	return days, nil
}
