package domain

import (
	"context"
	"io"
	"time"
)

// Attendee is a person registered to exactly one event.
// swagger:model Attendee
type Attendee struct {
	ID            int64     `json:"attendee_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phone_number"`
	EventID       int64     `json:"event_id"`
	CheckInStatus bool      `json:"check_in_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewAttendee returns an attendee that is not checked in. ID is set by the repository on create.
func NewAttendee(eventID int64, firstName, lastName, email, phone string, createdAt time.Time) *Attendee {
	return &Attendee{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		PhoneNumber: phone,
		EventID:     eventID,
		CreatedAt:   createdAt,
	}
}

// AttendeeFilter narrows an event's attendee listing. Text fields are
// case-insensitive substring matches; CheckInStatus is exact when set.
type AttendeeFilter struct {
	FirstName     string
	LastName      string
	Email         string
	CheckInStatus *bool
}

// AttendeeRepository defines storage operations for attendees.
type AttendeeRepository interface {
	// Register inserts the attendee if the event exists, the email is not yet
	// registered for it and the event has capacity left. The checks and the
	// insert are atomic with respect to other registrations for the same event.
	Register(ctx context.Context, a *Attendee) error
	ListByEvent(ctx context.Context, eventID int64, filter AttendeeFilter) ([]*Attendee, error)
	CheckIn(ctx context.Context, attendeeID int64) error
	// CheckInByEmails checks in the not yet checked in attendees of eventID
	// whose email is in emails and returns how many rows changed.
	CheckInByEmails(ctx context.Context, eventID int64, emails []string) (int64, error)
}

// AttendeeService defines attendee registration and check-in operations.
type AttendeeService interface {
	RegisterAttendee(ctx context.Context, eventID int64, firstName, lastName, email, phone string) (*Attendee, error)
	ListAttendees(ctx context.Context, eventID int64, filter AttendeeFilter) ([]*Attendee, error)
	CheckIn(ctx context.Context, attendeeID int64) error
	BulkCheckIn(ctx context.Context, eventID int64, csv io.Reader) (int64, error)
}
