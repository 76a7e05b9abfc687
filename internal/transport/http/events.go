package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cimillas/hangout-planner/internal/app"
	"github.com/cimillas/hangout-planner/internal/availability"
	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

// Planner is the subset of app.PlannerService the event endpoints need.
type Planner interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	Event(ctx context.Context, id string) (domain.Event, error)
	GetEvent(ctx context.Context, id string) (app.EventView, error)
	SubmitResponse(ctx context.Context, in app.SubmitResponseInput) (domain.Response, error)
	Summary(ctx context.Context, id string) (app.SummaryView, error)
	WeekdayDates(ctx context.Context, id string, weekday int) ([]calendar.Day, error)
	ExportCalendar(ctx context.Context, id string) ([]byte, error)
}

// HandleCreateEvent handles POST /api/events.
func HandleCreateEvent(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createEventRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		event, err := svc.CreateEvent(r.Context(), app.CreateEventInput{
			Title:     req.Title,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, createEventResponse{ID: event.ID})
	}
}

// HandleGetEvent handles GET /api/events/{id}.
func HandleGetEvent(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		view, err := svc.GetEvent(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := getEventResponse{
			Event:     toEventBody(view.Event),
			Responses: make([]responseBody, 0, len(view.Responses)),
		}
		for _, rs := range view.Responses {
			updated := rs.UpdatedAt
			resp.Responses = append(resp.Responses, responseBody{
				Name:        rs.Name,
				Unavailable: nonNilDays(rs.Unavailable),
				UpdatedAt:   &updated,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleSubmitResponse handles POST /api/events/{id}/submit. An unknown event
// is reported before the body is looked at.
func HandleSubmitResponse(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		if _, err := svc.Event(r.Context(), r.PathValue("id")); err != nil {
			writeServiceError(w, r, err)
			return
		}

		var req submitRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		_, err := svc.SubmitResponse(r.Context(), app.SubmitResponseInput{
			EventID:          r.PathValue("id"),
			Name:             req.Name,
			UnavailableDates: req.UnavailableDates,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}

// HandleSummary handles GET /api/events/{id}/summary.
func HandleSummary(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		summary, err := svc.Summary(r.Context(), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := summaryResponse{
			Event:     toEventBody(summary.Event),
			Responses: make([]responseBody, 0, len(summary.Responses)),
			Days:      make([]daySummaryBody, 0, len(summary.Days)),
			FreeDays:  nonNilDays(summary.FreeDays),
		}
		for _, rs := range summary.Responses {
			resp.Responses = append(resp.Responses, responseBody{
				Name:        rs.Name,
				Unavailable: nonNilDays(rs.Unavailable),
			})
		}
		for _, d := range summary.Days {
			resp.Days = append(resp.Days, toDaySummaryBody(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleWeekdayDates handles GET /api/events/{id}/weekdays/{weekday}.
func HandleWeekdayDates(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		weekday, err := strconv.Atoi(r.PathValue("weekday"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidWeekday, domain.ErrInvalidWeekday.Error())
			return
		}

		dates, err := svc.WeekdayDates(r.Context(), r.PathValue("id"), weekday)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, weekdayDatesResponse{Dates: nonNilDays(dates)})
	}
}

// HandleExportCalendar handles GET /api/events/{id}/calendar.ics.
func HandleExportCalendar(svc Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		id := r.PathValue("id")
		body, err := svc.ExportCalendar(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.ics"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

var validate = newValidator()

// decodeRequest strictly decodes the JSON body into dst and checks its
// validate tags, writing a 400 and returning false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			code, msg := describeValidation(verrs[0])
			writeError(w, http.StatusBadRequest, code, msg)
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func describeValidation(fe validator.FieldError) (code, msg string) {
	switch {
	case fe.Tag() == "required" && (fe.Field() == "startDate" || fe.Field() == "endDate"):
		return codeDatesRequired, domain.ErrDatesRequired.Error()
	case fe.Tag() == "datetime":
		return codeInvalidDate, fmt.Sprintf("%s: %s %q", domain.ErrInvalidDate, fe.Field(), fe.Value())
	}
	return codeInvalidRequestBody, "invalid " + fe.Field()
}

type createEventRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

type createEventResponse struct {
	ID string `json:"id"`
}

type submitRequest struct {
	Name             string   `json:"name"`
	UnavailableDates []string `json:"unavailableDates"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type eventBody struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	StartDate calendar.Day `json:"startDate"`
	EndDate   calendar.Day `json:"endDate"`
}

type responseBody struct {
	Name        string         `json:"name"`
	Unavailable []calendar.Day `json:"unavailable"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

type getEventResponse struct {
	Event     eventBody      `json:"event"`
	Responses []responseBody `json:"responses"`
}

type daySummaryBody struct {
	Date             calendar.Day `json:"date"`
	UnavailableCount int          `json:"unavailableCount"`
	Names            []string     `json:"names"`
}

type summaryResponse struct {
	Event     eventBody        `json:"event"`
	Responses []responseBody   `json:"responses"`
	Days      []daySummaryBody `json:"days"`
	FreeDays  []calendar.Day   `json:"freeDays"`
}

type weekdayDatesResponse struct {
	Dates []calendar.Day `json:"dates"`
}

func toEventBody(e domain.Event) eventBody {
	return eventBody{
		ID:        e.ID,
		Title:     e.Title,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
	}
}

func toDaySummaryBody(d availability.DaySummary) daySummaryBody {
	names := d.Names
	if names == nil {
		names = []string{}
	}
	return daySummaryBody{
		Date:             d.Day,
		UnavailableCount: d.Count,
		Names:            names,
	}
}

func nonNilDays(days []calendar.Day) []calendar.Day {
	if days == nil {
		return []calendar.Day{}
	}
	return days
}
