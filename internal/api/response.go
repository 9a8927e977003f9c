package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/maelh/locmat/internal/booking"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.WithError(err).Error("error encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// bookingError maps core booking errors onto HTTP responses. Returns false
// if the error was nil.
func bookingError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}

	var validation *booking.ValidationError
	var conflict *booking.ConflictError
	var transition *booking.InvalidTransitionError

	switch {
	case errors.Is(err, booking.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, booking.ErrBookingNotFound):
		jsonError(w, http.StatusNotFound, "booking not found")
	case errors.As(err, &validation):
		jsonError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &conflict):
		jsonError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &transition):
		jsonError(w, http.StatusConflict, transition.Error())
	default:
		log.WithError(err).Error("booking operation failed")
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}
