package domain

import (
	"time"

	"github.com/cimillas/hangout-planner/internal/calendar"
)

// Response is one respondent's unavailable days for an event, keyed by (EventID, Name).
// Unavailable is kept deduplicated and ascending; it may hold days outside the event range.
type Response struct {
	EventID     string
	Name        string
	Unavailable []calendar.Day
	UpdatedAt   time.Time
}
