// Package ics exports an event's free days as an iCalendar feed.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

const productID = "-//hangout-planner//free days//EN"

// FreeDays renders one all-day VEVENT per run of consecutive free days.
// free must be ascending, as availability.FreeDays returns it.
func FreeDays(event domain.Event, free []calendar.Day, stamp time.Time) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(event.Title)

	for _, run := range runs(free) {
		first, last := run[0], run[len(run)-1]
		ve := cal.AddEvent(fmt.Sprintf("%s-%s@hangout-planner", event.ID, first))
		ve.SetDtStampTime(stamp)
		ve.SetCreatedTime(event.CreatedAt)
		ve.SetSummary(fmt.Sprintf("%s: everyone free", event.Title))
		ve.SetAllDayStartAt(first.Time())
		// DTEND is exclusive for all-day events.
		ve.SetAllDayEndAt(last.AddDays(1).Time())
	}

	return []byte(cal.Serialize())
}

func runs(days []calendar.Day) [][]calendar.Day {
	var out [][]calendar.Day
	for i, d := range days {
		if i > 0 && days[i-1].AddDays(1) == d {
			out[len(out)-1] = append(out[len(out)-1], d)
			continue
		}
		out = append(out, []calendar.Day{d})
	}
	return out
}
