package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventmanager/internal/domain"
)

// retryAfterSeconds is advertised on 503 responses for transient storage failures.
const retryAfterSeconds = "5"

var publicMessages = map[error]string{
	domain.ErrEventNotFound:      "Event not found",
	domain.ErrAttendeeNotFound:   "Attendee not found",
	domain.ErrUserNotFound:       "User not found",
	domain.ErrUsernameTaken:      "Username already taken",
	domain.ErrDuplicateAttendee:  "Attendee with this email is already registered for the event",
	domain.ErrEventFull:          "Event is fully booked",
	domain.ErrInvalidCredentials: "Invalid credentials",
	domain.ErrInvalidToken:       "Invalid token",
}

// WriteDomainError maps err onto the HTTP error taxonomy. Conflicts surface
// as 400, transient storage failures as 503 with Retry-After, and anything
// unrecognised is logged and reported as a generic 500.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, publicMessage(err))
	case errors.Is(err, domain.ErrConflict):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeConflict, publicMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, publicMessage(err))
	case errors.Is(err, domain.ErrStorageUnavailable):
		logger.WarnContext(r.Context(), "storage unavailable", "path", r.URL.Path, "method", r.Method, "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "service temporarily unavailable, retry later")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func publicMessage(err error) string {
	for sentinel, msg := range publicMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}
