package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical textual form of a Day.
const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid calendar day")

// Day is a calendar date with no time of day and no zone.
// The zero value is not a real date; IsZero reports it.
type Day struct {
	year  int
	month time.Month
	day   int
}

// NewDay returns the Day for the given date, normalizing overflow the way time.Date does
// (so NewDay(2024, 2, 30) is 2024-03-01).
func NewDay(year int, month time.Month, day int) Day {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the Day that t falls on in t's own location.
func FromTime(t time.Time) Day {
	y, m, d := t.Date()
	return Day{year: y, month: m, day: d}
}

// ParseDay parses a YYYY-MM-DD token. The host zone is never consulted, so the
// day component of the token is the day component of the result.
func ParseDay(s string) (Day, error) {
	if len(s) != len(Layout) {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return FromTime(t), nil
}

// MustParseDay is ParseDay for literals known to be valid.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Year() int { return d.year }
func (d Day) Month() time.Month { return d.month }
func (d Day) DayOfMonth() int { return d.day }
func (d Day) IsZero() bool { return d == Day{} }
func (d Day) Before(o Day) bool { return d.Compare(o) < 0 }
func (d Day) After(o Day) bool { return d.Compare(o) > 0 }
func (d Day) Equal(o Day) bool { return d == o }
func (d Day) AddDays(n int) Day { return FromTime(d.Time().AddDate(0, 0, n)) }
func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }

// Time returns midnight UTC of d. UTC has no DST, so day arithmetic on it is exact.
func (d Day) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1.
func (d Day) Compare(o Day) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

// DaysUntil returns the number of days from d to o (negative when o is earlier).
func (d Day) DaysUntil(o Day) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
