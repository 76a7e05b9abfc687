package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cimillas/hangout-planner/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeDatesRequired       = "dates_required"
	codeInvalidDate         = "invalid_date"
	codeInvalidRange        = "invalid_range"
	codeRangeTooLong        = "range_too_long"
	codeNameRequired        = "name_required"
	codeUnavailableRequired = "unavailable_dates_required"
	codeInvalidWeekday      = "invalid_weekday"
	codeEventNotFound       = "event_not_found"
	codeIDSpaceExhausted    = "event_id_unavailable"
	codeForbidden           = "forbidden"
	codeServiceUnavailable  = "service_unavailable"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps planner errors onto status codes. Anything it does not
// recognise is logged and reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, domain.ErrEventNotFound.Error())
	case errors.Is(err, domain.ErrDatesRequired):
		writeError(w, http.StatusBadRequest, codeDatesRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, codeInvalidDate, err.Error())
	case errors.Is(err, domain.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, codeInvalidRange, err.Error())
	case errors.Is(err, domain.ErrRangeTooLong):
		writeError(w, http.StatusBadRequest, codeRangeTooLong, err.Error())
	case errors.Is(err, domain.ErrNameRequired):
		writeError(w, http.StatusBadRequest, codeNameRequired, err.Error())
	case errors.Is(err, domain.ErrUnavailableRequired):
		writeError(w, http.StatusBadRequest, codeUnavailableRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidWeekday):
		writeError(w, http.StatusBadRequest, codeInvalidWeekday, err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
	case errors.Is(err, domain.ErrIDCollisionExhausted):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("event id allocation failed")
		writeError(w, http.StatusServiceUnavailable, codeIDSpaceExhausted, "could not allocate an event id, try again")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
