package http

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/party-bookings/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps domain errors to status codes. Anything unexpected is
// logged and answered with a generic 500.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusConflict, "slot already booked")
	case errors.Is(err, domain.ErrSerializationFailure):
		writeMessage(w, http.StatusConflict, "conflict, try again")
	default:
		loggerFrom(r.Context(), h.logger).WithError(err).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
