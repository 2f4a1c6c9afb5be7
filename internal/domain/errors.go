package domain

import (
	"errors"
	"fmt"
)

// Error categories. Controllers map these to HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
)

var (
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrAttendeeNotFound = fmt.Errorf("attendee %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
)

var (
	ErrUsernameTaken     = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrDuplicateAttendee = fmt.Errorf("%w: attendee with this email is already registered for the event", ErrConflict)
	ErrEventFull         = fmt.Errorf("%w: event is fully booked", ErrConflict)
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)

// ErrStorageUnavailable marks connection-level storage failures. Unlike domain
// errors these are transient and safe for the client to retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ValidationError carries field-level messages and matches ErrValidation.
type ValidationError struct {
	Messages []string
}

// NewValidationError returns a ValidationError with the given messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	out := e.Messages[0]
	for _, m := range e.Messages[1:] {
		out += "; " + m
	}
	return out
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
