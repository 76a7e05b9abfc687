package domain

import (
	"time"

	"github.com/cimillas/hangout-planner/internal/calendar"
)

// DefaultTitle is used when an event is created without a title.
const DefaultTitle = "Hangout"

// Event is a scheduling poll over a fixed, inclusive range of calendar days.
type Event struct {
	ID        string
	Title     string
	StartDate calendar.Day
	EndDate   calendar.Day
	CreatedAt time.Time
}

// Days returns every day the event spans.
func (e Event) Days() []calendar.Day {
	days, err := calendar.ExpandRange(e.StartDate, e.EndDate)
	if err != nil {
		return nil
	}
	return days
}

// Contains reports whether d lies inside the event's range.
func (e Event) Contains(d calendar.Day) bool {
	return !d.Before(e.StartDate) && !d.After(e.EndDate)
}
