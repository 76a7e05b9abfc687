// Package availability merges respondents' unavailable days into per-day summaries.
package availability

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

// DaySummary is the aggregate for one day of an event.
type DaySummary struct {
	Day calendar.Day
	// Count is the number of respondents unavailable on Day.
	Count int
	// Names lists those respondents in the order their responses were given.
	Names []string
}

// Normalize parses raw day tokens and returns them deduplicated and ascending.
// Surrounding whitespace is ignored; any other malformed token fails the whole call.
func Normalize(raw []string) ([]calendar.Day, error) {
	seen := make(map[calendar.Day]struct{}, len(raw))
	days := make([]calendar.Day, 0, len(raw))
	for _, token := range raw {
		d, err := calendar.ParseDay(strings.TrimSpace(token))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDate, token)
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	slices.SortFunc(days, calendar.Day.Compare)
	return days, nil
}

// Summarize counts, for every day of the event, the responses marking it unavailable.
// Days a response lists outside the event range are ignored.
func Summarize(event domain.Event, responses []domain.Response) []DaySummary {
	days := event.Days()
	summaries := make([]DaySummary, len(days))
	index := make(map[calendar.Day]int, len(days))
	for i, d := range days {
		summaries[i] = DaySummary{Day: d, Names: []string{}}
		index[d] = i
	}

	for _, r := range responses {
		for _, d := range r.Unavailable {
			i, ok := index[d]
			if !ok {
				continue
			}
			s := &summaries[i]
			if n := len(s.Names); n > 0 && s.Names[n-1] == r.Name {
				continue
			}
			s.Count++
			s.Names = append(s.Names, r.Name)
		}
	}
	return summaries
}

// FreeDays returns the days nobody marked unavailable, in order.
func FreeDays(summaries []DaySummary) []calendar.Day {
	free := make([]calendar.Day, 0, len(summaries))
	for _, s := range summaries {
		if s.Count == 0 {
			free = append(free, s.Day)
		}
	}
	return free
}
