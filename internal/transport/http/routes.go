package http

import (
	"net/http"
)

// NewRouter wires every planner endpoint plus the health check onto a mux.
// Unknown paths get the JSON not_found envelope.
func NewRouter(svc Planner, pinger Pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/health", HandleHealth(pinger))
	mux.Handle("/api/events", HandleCreateEvent(svc))
	mux.Handle("/api/events/{id}", HandleGetEvent(svc))
	mux.Handle("/api/events/{id}/submit", HandleSubmitResponse(svc))
	mux.Handle("/api/events/{id}/summary", HandleSummary(svc))
	mux.Handle("/api/events/{id}/weekdays/{weekday}", HandleWeekdayDates(svc))
	mux.Handle("/api/events/{id}/calendar.ics", HandleExportCalendar(svc))
	mux.Handle("/", NotFoundHandler())
	return mux
}

// NotFoundHandler returns a JSON 404 for unmatched routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
