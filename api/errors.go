package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/service"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrNotEligible, http.StatusConflict, "not_eligible"},
	{service.ErrInsufficientTickets, http.StatusConflict, "insufficient_tickets"},
	{service.ErrInvalidPayment, http.StatusUnprocessableEntity, "invalid_payment"},
	{service.ErrNoEntries, http.StatusConflict, "no_entries"},
	{service.ErrNoWinners, http.StatusConflict, "no_winners"},
	{service.ErrShareTooSmall, http.StatusConflict, "share_too_small"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{service.ErrRollingClosed, http.StatusConflict, "rolling_closed"},
	{service.ErrPeriodClosed, http.StatusConflict, "period_closed"},
}

// writeServiceError maps a service error to its status and code
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err,
	}).Error("Request failed")
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Failed to write response body")
	}
}
