package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cimillas/hangout-planner/internal/app"
	"github.com/cimillas/hangout-planner/internal/availability"
	"github.com/cimillas/hangout-planner/internal/calendar"
	"github.com/cimillas/hangout-planner/internal/domain"
)

type stubPlanner struct {
	createFn   func(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	eventFn    func(ctx context.Context, id string) (domain.Event, error)
	getFn      func(ctx context.Context, id string) (app.EventView, error)
	submitFn   func(ctx context.Context, in app.SubmitResponseInput) (domain.Response, error)
	summaryFn  func(ctx context.Context, id string) (app.SummaryView, error)
	weekdayFn  func(ctx context.Context, id string, weekday int) ([]calendar.Day, error)
	exportFn   func(ctx context.Context, id string) ([]byte, error)
	lastCreate app.CreateEventInput
	lastSubmit app.SubmitResponseInput
	calls      int
}

func (s *stubPlanner) CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error) {
	s.calls++
	s.lastCreate = in
	if s.createFn == nil {
		return domain.Event{}, errors.New("unexpected call")
	}
	return s.createFn(ctx, in)
}

// Event reports every id as existing unless eventFn says otherwise.
func (s *stubPlanner) Event(ctx context.Context, id string) (domain.Event, error) {
	if s.eventFn == nil {
		return domain.Event{ID: id}, nil
	}
	return s.eventFn(ctx, id)
}

func (s *stubPlanner) GetEvent(ctx context.Context, id string) (app.EventView, error) {
	s.calls++
	if s.getFn == nil {
		return app.EventView{}, errors.New("unexpected call")
	}
	return s.getFn(ctx, id)
}

func (s *stubPlanner) SubmitResponse(ctx context.Context, in app.SubmitResponseInput) (domain.Response, error) {
	s.calls++
	s.lastSubmit = in
	if s.submitFn == nil {
		return domain.Response{}, errors.New("unexpected call")
	}
	return s.submitFn(ctx, in)
}

func (s *stubPlanner) Summary(ctx context.Context, id string) (app.SummaryView, error) {
	s.calls++
	if s.summaryFn == nil {
		return app.SummaryView{}, errors.New("unexpected call")
	}
	return s.summaryFn(ctx, id)
}

func (s *stubPlanner) WeekdayDates(ctx context.Context, id string, weekday int) ([]calendar.Day, error) {
	s.calls++
	if s.weekdayFn == nil {
		return nil, errors.New("unexpected call")
	}
	return s.weekdayFn(ctx, id, weekday)
}

func (s *stubPlanner) ExportCalendar(ctx context.Context, id string) ([]byte, error) {
	s.calls++
	if s.exportFn == nil {
		return nil, errors.New("unexpected call")
	}
	return s.exportFn(ctx, id)
}

func sampleEvent() domain.Event {
	return domain.Event{
		ID:        "ember-plum-orbit-ABCDEFGH",
		Title:     "Cabin trip",
		StartDate: calendar.MustParseDay("2024-05-01"),
		EndDate:   calendar.MustParseDay("2024-05-03"),
		CreatedAt: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
}

func serve(t *testing.T, svc Planner, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	NewRouter(svc, nil).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHandleCreateEvent_Created(t *testing.T) {
	t.Parallel()

	svc := &stubPlanner{
		createFn: func(_ context.Context, in app.CreateEventInput) (domain.Event, error) {
			return sampleEvent(), nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/events", `{"title":"Cabin trip","startDate":"2024-05-01","endDate":"2024-05-03"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp createEventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "ember-plum-orbit-ABCDEFGH" {
		t.Fatalf("unexpected id %q", resp.ID)
	}
	want := app.CreateEventInput{Title: "Cabin trip", StartDate: "2024-05-01", EndDate: "2024-05-03"}
	if svc.lastCreate != want {
		t.Fatalf("expected input %+v, got %+v", want, svc.lastCreate)
	}
}

func TestHandleCreateEvent_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
		wantCalled bool
	}{
		{name: "wrong method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed, wantCode: codeMethodNotAllowed},
		{name: "malformed json", method: http.MethodPost, body: `{"startDate":`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "unknown field", method: http.MethodPost, body: `{"startDate":"2024-05-01","endDate":"2024-05-02","owner":"x"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "missing start", method: http.MethodPost, body: `{"endDate":"2024-05-02"}`, wantStatus: http.StatusBadRequest, wantCode: codeDatesRequired},
		{name: "missing end", method: http.MethodPost, body: `{"startDate":"2024-05-02"}`, wantStatus: http.StatusBadRequest, wantCode: codeDatesRequired},
		{name: "malformed date", method: http.MethodPost, body: `{"startDate":"2024-13-01","endDate":"2024-05-02"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidDate},
		{name: "inverted range", method: http.MethodPost, body: `{"startDate":"2024-05-03","endDate":"2024-05-01"}`, serviceErr: domain.ErrInvalidRange, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRange, wantCalled: true},
		{name: "range too long", method: http.MethodPost, body: `{"startDate":"2024-01-01","endDate":"2026-01-01"}`, serviceErr: fmt.Errorf("%w: 732 days", domain.ErrRangeTooLong), wantStatus: http.StatusBadRequest, wantCode: codeRangeTooLong, wantCalled: true},
		{name: "ids exhausted", method: http.MethodPost, body: `{"startDate":"2024-05-01","endDate":"2024-05-02"}`, serviceErr: domain.ErrIDCollisionExhausted, wantStatus: http.StatusServiceUnavailable, wantCode: codeIDSpaceExhausted, wantCalled: true},
		{name: "store failure", method: http.MethodPost, body: `{"startDate":"2024-05-01","endDate":"2024-05-02"}`, serviceErr: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: codeInternalError, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubPlanner{
				createFn: func(context.Context, app.CreateEventInput) (domain.Event, error) {
					return domain.Event{}, tt.serviceErr
				},
			}
			rec := serve(t, svc, tt.method, "/api/events", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, got)
			}
			if called := svc.calls > 0; called != tt.wantCalled {
				t.Fatalf("expected service called=%v, got %v", tt.wantCalled, called)
			}
		})
	}
}

func TestHandleCreateEvent_InternalErrorIsOpaque(t *testing.T) {
	t.Parallel()

	svc := &stubPlanner{
		createFn: func(context.Context, app.CreateEventInput) (domain.Event, error) {
			return domain.Event{}, errors.New("pq: password authentication failed for user hangout")
		},
	}
	rec := serve(t, svc, http.MethodPost, "/api/events", `{"startDate":"2024-05-01","endDate":"2024-05-02"}`)

	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("internal error leaked to client: %s", rec.Body.String())
	}
}

func TestHandleGetEvent(t *testing.T) {
	t.Parallel()

	updated := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	svc := &stubPlanner{
		getFn: func(_ context.Context, id string) (app.EventView, error) {
			if id != "ember-plum-orbit-ABCDEFGH" {
				return app.EventView{}, domain.ErrEventNotFound
			}
			return app.EventView{
				Event: sampleEvent(),
				Responses: []domain.Response{
					{EventID: id, Name: "Ana", Unavailable: []calendar.Day{calendar.MustParseDay("2024-05-02")}, UpdatedAt: updated},
					{EventID: id, Name: "Bea", UpdatedAt: updated},
				},
			}, nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/api/events/ember-plum-orbit-ABCDEFGH", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	event := body["event"].(map[string]any)
	if event["startDate"] != "2024-05-01" || event["endDate"] != "2024-05-03" || event["title"] != "Cabin trip" {
		t.Fatalf("unexpected event body %v", event)
	}
	responses := body["responses"].([]any)
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	bea := responses[1].(map[string]any)
	if unavailable, ok := bea["unavailable"].([]any); !ok || len(unavailable) != 0 {
		t.Fatalf("expected empty unavailable list, got %v", bea["unavailable"])
	}

	rec = serve(t, svc, http.MethodGet, "/api/events/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != codeEventNotFound {
		t.Fatalf("expected code %s, got %s", codeEventNotFound, got)
	}
}

func TestHandleSubmitResponse(t *testing.T) {
	t.Parallel()

	svc := &stubPlanner{
		submitFn: func(_ context.Context, in app.SubmitResponseInput) (domain.Response, error) {
			return domain.Response{EventID: in.EventID, Name: in.Name}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/events/e1/submit", `{"name":"Ana","unavailableDates":["2024-05-02","2024-05-01"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if svc.lastSubmit.EventID != "e1" || svc.lastSubmit.Name != "Ana" || len(svc.lastSubmit.UnavailableDates) != 2 {
		t.Fatalf("unexpected input %+v", svc.lastSubmit)
	}
}

func TestHandleSubmitResponse_PassesMissingListAsNil(t *testing.T) {
	t.Parallel()

	svc := &stubPlanner{
		submitFn: func(_ context.Context, in app.SubmitResponseInput) (domain.Response, error) {
			if in.UnavailableDates == nil {
				return domain.Response{}, domain.ErrUnavailableRequired
			}
			return domain.Response{}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/events/e1/submit", `{"name":"Ana"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != codeUnavailableRequired {
		t.Fatalf("expected code %s, got %s", codeUnavailableRequired, got)
	}

	rec = serve(t, svc, http.MethodPost, "/api/events/e1/submit", `{"name":"Ana","unavailableDates":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected empty list to be accepted, got %d", rec.Code)
	}
}

func TestHandleSubmitResponse_UnknownEventBeforeBody(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"name not a string":    `{"name":5,"unavailableDates":[]}`,
		"dates not an array":   `{"name":"Ana","unavailableDates":"x"}`,
		"unknown field":        `{"name":"Ana","unavailableDates":[],"extra":true}`,
		"malformed json":       `{"name":`,
		"blank name, bad date": `{"name":" ","unavailableDates":["someday"]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			svc := &stubPlanner{
				eventFn: func(context.Context, string) (domain.Event, error) {
					return domain.Event{}, domain.ErrEventNotFound
				},
			}
			rec := serve(t, svc, http.MethodPost, "/api/events/no-such-event/submit", body)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("expected status 404, got %d (%s)", rec.Code, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != codeEventNotFound {
				t.Fatalf("expected code %s, got %s", codeEventNotFound, got)
			}
			if svc.calls != 0 {
				t.Fatalf("expected submit not to be called, got %d calls", svc.calls)
			}
		})
	}
}

func TestHandleCreateAndSubmit_LongTextAccepted(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	svc := &stubPlanner{
		createFn: func(context.Context, app.CreateEventInput) (domain.Event, error) {
			return sampleEvent(), nil
		},
		submitFn: func(context.Context, app.SubmitResponseInput) (domain.Response, error) {
			return domain.Response{}, nil
		},
	}

	rec := serve(t, svc, http.MethodPost, "/api/events", `{"title":"`+long+`","startDate":"2024-05-01","endDate":"2024-05-02"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected status 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastCreate.Title != long {
		t.Fatal("title was not passed through unchanged")
	}

	rec = serve(t, svc, http.MethodPost, "/api/events/e1/submit", `{"name":"`+long+`","unavailableDates":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastSubmit.Name != long {
		t.Fatal("name was not passed through unchanged")
	}
}

func TestHandleSubmitResponse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "wrong method", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed, wantCode: codeMethodNotAllowed},
		{name: "malformed json", method: http.MethodPost, body: `[`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "list of numbers", method: http.MethodPost, body: `{"name":"Ana","unavailableDates":[1]}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "event not found", method: http.MethodPost, body: `{"name":"Ana","unavailableDates":[]}`, serviceErr: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantCode: codeEventNotFound},
		{name: "name required", method: http.MethodPost, body: `{"name":"  ","unavailableDates":[]}`, serviceErr: domain.ErrNameRequired, wantStatus: http.StatusBadRequest, wantCode: codeNameRequired},
		{name: "bad token", method: http.MethodPost, body: `{"name":"Ana","unavailableDates":["someday"]}`, serviceErr: fmt.Errorf("%w: %q", domain.ErrInvalidDate, "someday"), wantStatus: http.StatusBadRequest, wantCode: codeInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubPlanner{
				submitFn: func(context.Context, app.SubmitResponseInput) (domain.Response, error) {
					return domain.Response{}, tt.serviceErr
				},
			}
			rec := serve(t, svc, tt.method, "/api/events/e1/submit", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if got := decodeError(t, rec).Code; got != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, got)
			}
		})
	}
}

func TestHandleSummary(t *testing.T) {
	t.Parallel()

	may1 := calendar.MustParseDay("2024-05-01")
	may2 := calendar.MustParseDay("2024-05-02")
	svc := &stubPlanner{
		summaryFn: func(context.Context, string) (app.SummaryView, error) {
			return app.SummaryView{
				Event: sampleEvent(),
				Responses: []domain.Response{
					{Name: "Ana", Unavailable: []calendar.Day{may2}},
				},
				Days: []availability.DaySummary{
					{Day: may1, Count: 0},
					{Day: may2, Count: 1, Names: []string{"Ana"}},
				},
				FreeDays: []calendar.Day{may1},
			}, nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/api/events/e1/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var got struct {
		Days []struct {
			Date             string   `json:"date"`
			UnavailableCount int      `json:"unavailableCount"`
			Names            []string `json:"names"`
		} `json:"days"`
		FreeDays []string `json:"freeDays"`
	}
	raw := rec.Body.Bytes()
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Days) != 2 || got.Days[1].Date != "2024-05-02" || got.Days[1].UnavailableCount != 1 {
		t.Fatalf("unexpected days %+v", got.Days)
	}
	if !bytes.Contains(raw, []byte(`"names":[]`)) {
		t.Fatalf("expected empty names to encode as [], got %s", raw)
	}
	if len(got.FreeDays) != 1 || got.FreeDays[0] != "2024-05-01" {
		t.Fatalf("unexpected free days %v", got.FreeDays)
	}
}

func TestHandleWeekdayDates(t *testing.T) {
	t.Parallel()

	var gotWeekday int
	svc := &stubPlanner{
		weekdayFn: func(_ context.Context, _ string, weekday int) ([]calendar.Day, error) {
			gotWeekday = weekday
			if weekday > 6 {
				return nil, domain.ErrInvalidWeekday
			}
			if weekday == 0 {
				return nil, nil
			}
			return []calendar.Day{calendar.MustParseDay("2024-05-03")}, nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/api/events/e1/weekdays/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotWeekday != 5 {
		t.Fatalf("expected weekday 5, got %d", gotWeekday)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"dates":["2024-05-03"]}` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = serve(t, svc, http.MethodGet, "/api/events/e1/weekdays/0", "")
	if strings.TrimSpace(rec.Body.String()) != `{"dates":[]}` {
		t.Fatalf("expected empty dates, got %s", rec.Body.String())
	}

	for _, weekday := range []string{"9", "friday"} {
		rec = serve(t, svc, http.MethodGet, "/api/events/e1/weekdays/"+weekday, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("weekday %s: expected status 400, got %d", weekday, rec.Code)
		}
		if got := decodeError(t, rec).Code; got != codeInvalidWeekday {
			t.Fatalf("weekday %s: expected code %s, got %s", weekday, codeInvalidWeekday, got)
		}
	}
}

func TestHandleExportCalendar(t *testing.T) {
	t.Parallel()

	svc := &stubPlanner{
		exportFn: func(_ context.Context, id string) ([]byte, error) {
			if id == "missing" {
				return nil, domain.ErrEventNotFound
			}
			return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
		},
	}

	rec := serve(t, svc, http.MethodGet, "/api/events/e1/calendar.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="e1.ics"`) {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	rec = serve(t, svc, http.MethodGet, "/api/events/missing/calendar.ics", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
