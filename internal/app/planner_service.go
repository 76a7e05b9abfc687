package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cimillas/hangout-planner/internal/availability"
	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/clock"
	"github.com/cimillas/hangout-planner/internal/domain"
	"github.com/cimillas/hangout-planner/internal/ics"
	"github.com/cimillas/hangout-planner/internal/idgen"
)

// EventStore is the persistence contract the planner relies on.
// InsertEvent must reject a duplicate id atomically with domain.ErrEventIDConflict,
// and UpsertResponse must insert-or-replace atomically by (EventID, Name).
type EventStore interface {
	InsertEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	ListResponses(ctx context.Context, eventID string) ([]domain.Response, error)
	UpsertResponse(ctx context.Context, resp domain.Response) error
}

type PlannerService struct {
	store         EventStore
	clock         clock.Clock
	ids           idgen.Generator
	maxIDAttempts int
	maxRangeDays  int
}

const (
	defaultMaxIDAttempts = 5
	defaultMaxRangeDays  = 366
)

func NewPlannerService(store EventStore, clk clock.Clock, opts ...PlannerServiceOption) *PlannerService {
	svc := &PlannerService{
		store:         store,
		clock:         clk,
		ids:           idgen.NewWords(),
		maxIDAttempts: defaultMaxIDAttempts,
		maxRangeDays:  defaultMaxRangeDays,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PlannerServiceOption func(*PlannerService)

// WithIDGenerator overrides the event id generator.
func WithIDGenerator(gen idgen.Generator) PlannerServiceOption {
	return func(s *PlannerService) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithMaxIDAttempts bounds how many ids CreateEvent tries before giving up.
func WithMaxIDAttempts(n int) PlannerServiceOption {
	return func(s *PlannerService) {
		if n > 0 {
			s.maxIDAttempts = n
		}
	}
}

// WithMaxRangeDays caps the number of days an event may span.
func WithMaxRangeDays(n int) PlannerServiceOption {
	return func(s *PlannerService) {
		if n > 0 {
			s.maxRangeDays = n
		}
	}
}

type CreateEventInput struct {
	Title     string
	StartDate string
	EndDate   string
}

func (s *PlannerService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domain.DefaultTitle
	}

	startRaw, endRaw := strings.TrimSpace(in.StartDate), strings.TrimSpace(in.EndDate)
	if startRaw == "" || endRaw == "" {
		return domain.Event{}, domain.ErrDatesRequired
	}
	start, err := calendar.ParseDay(startRaw)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: startDate %q", domain.ErrInvalidDate, in.StartDate)
	}
	end, err := calendar.ParseDay(endRaw)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: endDate %q", domain.ErrInvalidDate, in.EndDate)
	}
	if start.After(end) {
		return domain.Event{}, domain.ErrInvalidRange
	}
	if span := start.DaysUntil(end) + 1; span > s.maxRangeDays {
		return domain.Event{}, fmt.Errorf("%w: %d days, at most %d allowed", domain.ErrRangeTooLong, span, s.maxRangeDays)
	}

	event := domain.Event{
		Title:     title,
		StartDate: start,
		EndDate:   end,
		CreatedAt: s.clock.Now(),
	}

	// The store's unique key is the only collision check; a conflict means regenerate.
	logger := zerolog.Ctx(ctx)
	for attempt := 1; attempt <= s.maxIDAttempts; attempt++ {
		id, err := s.ids.Generate()
		if err != nil {
			return domain.Event{}, fmt.Errorf("generate event id: %w", err)
		}
		event.ID = id

		err = s.store.InsertEvent(ctx, event)
		if err == nil {
			return event, nil
		}
		if !errors.Is(err, domain.ErrEventIDConflict) {
			return domain.Event{}, err
		}
		logger.Warn().Str("event_id", id).Int("attempt", attempt).Msg("event id collision, regenerating")
	}
	return domain.Event{}, domain.ErrIDCollisionExhausted
}

// Event returns the event alone, without its responses.
func (s *PlannerService) Event(ctx context.Context, id string) (domain.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// EventView is an event with its raw responses.
type EventView struct {
	Event     domain.Event
	Responses []domain.Response
}

func (s *PlannerService) GetEvent(ctx context.Context, id string) (EventView, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	responses, err := s.store.ListResponses(ctx, event.ID)
	if err != nil {
		return EventView{}, err
	}
	return EventView{Event: event, Responses: responses}, nil
}

type SubmitResponseInput struct {
	EventID string
	Name    string
	// UnavailableDates is nil when the caller sent no list at all.
	UnavailableDates []string
}

// SubmitResponse replaces the respondent's whole answer in a single upsert.
func (s *PlannerService) SubmitResponse(ctx context.Context, in SubmitResponseInput) (domain.Response, error) {
	event, err := s.store.GetEvent(ctx, in.EventID)
	if err != nil {
		return domain.Response{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Response{}, domain.ErrNameRequired
	}
	if in.UnavailableDates == nil {
		return domain.Response{}, domain.ErrUnavailableRequired
	}
	days, err := availability.Normalize(in.UnavailableDates)
	if err != nil {
		return domain.Response{}, err
	}

	resp := domain.Response{
		EventID:     event.ID,
		Name:        name,
		Unavailable: days,
		UpdatedAt:   s.clock.Now(),
	}
	if err := s.store.UpsertResponse(ctx, resp); err != nil {
		return domain.Response{}, err
	}
	return resp, nil
}

// SummaryView is an event, its responses and the per-day aggregate over its range.
type SummaryView struct {
	Event     domain.Event
	Responses []domain.Response
	Days      []availability.DaySummary
	FreeDays  []calendar.Day
}

func (s *PlannerService) Summary(ctx context.Context, id string) (SummaryView, error) {
	view, err := s.GetEvent(ctx, id)
	if err != nil {
		return SummaryView{}, err
	}
	days := availability.Summarize(view.Event, view.Responses)
	return SummaryView{
		Event:     view.Event,
		Responses: view.Responses,
		Days:      days,
		FreeDays:  availability.FreeDays(days),
	}, nil
}

// WeekdayDates lists the event's days that fall on weekday (Sunday = 0), for
// marking a whole weekday at once.
func (s *PlannerService) WeekdayDates(ctx context.Context, id string, weekday int) ([]calendar.Day, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return calendar.WeekdayDays(event.StartDate, event.EndDate, weekday)
}

// ExportCalendar renders the event's fully free days as an iCalendar document.
func (s *PlannerService) ExportCalendar(ctx context.Context, id string) ([]byte, error) {
	summary, err := s.Summary(ctx, id)
	if err != nil {
		return nil, err
	}
	return ics.FreeDays(summary.Event, summary.FreeDays, s.clock.Now()), nil
}
