package domain

import (
	"context"
	"strings"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	// EventStatusUpcoming is reserved. No transition produces it; events start as scheduled.
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
)

// ParseEventStatus returns the status for s (case-insensitive) and whether it is known.
func ParseEventStatus(s string) (EventStatus, bool) {
	st := EventStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case EventStatusUpcoming, EventStatusScheduled, EventStatusOngoing, EventStatusCompleted:
		return st, true
	}
	return "", false
}

// NextStatus applies the lifecycle transition rule at time now.
// An event inside [start, end) becomes ongoing, an event past its end becomes
// completed, and anything else keeps its current status.
func NextStatus(current EventStatus, start, end, now time.Time) EventStatus {
	switch {
	case !now.Before(start) && now.Before(end):
		return EventStatusOngoing
	case !now.Before(end):
		return EventStatusCompleted
	default:
		return current
	}
}

// Event represents a scheduled activity with a time window and attendee capacity.
// swagger:model Event
type Event struct {
	ID           int64       `json:"event_id"`
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	Location     string      `json:"location"`
	MaxAttendees int         `json:"max_attendees"`
	Status       EventStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewEvent returns a scheduled Event. ID is set by the repository on create.
func NewEvent(name string, description *string, start, end time.Time, location string, maxAttendees int, now time.Time) *Event {
	return &Event{
		Name:         name,
		Description:  description,
		StartTime:    start,
		EndTime:      end,
		Location:     location,
		MaxAttendees: maxAttendees,
		Status:       EventStatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Refresh recomputes Status at now and reports whether it changed.
func (e *Event) Refresh(now time.Time) bool {
	next := NextStatus(e.Status, e.StartTime, e.EndTime, now)
	if next == e.Status {
		return false
	}
	e.Status = next
	return true
}

// EventInput holds the writable fields of an event for create and full update.
type EventInput struct {
	Name         string
	Description  *string
	StartTime    time.Time
	EndTime      time.Time
	Location     string
	MaxAttendees int
}

// Validate checks the field invariants of an event.
func (in EventInput) Validate() error {
	var msgs []string
	if strings.TrimSpace(in.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		msgs = append(msgs, "location is required")
	}
	if in.MaxAttendees <= 0 {
		msgs = append(msgs, "max_attendees must be greater than 0")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		msgs = append(msgs, "start_time and end_time are required")
	} else if !in.StartTime.Before(in.EndTime) {
		msgs = append(msgs, "start_time must be before end_time")
	}
	if len(msgs) > 0 {
		return NewValidationError(msgs...)
	}
	return nil
}

// EventFilter narrows event listings. Zero values mean no filter.
type EventFilter struct {
	Status   EventStatus
	Location string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, id int64, in EventInput) (*Event, error)
	UpdateStatus(ctx context.Context, id int64, status EventStatus) error
	// RefreshStatuses applies NextStatus to every stored event in one statement.
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter EventFilter) ([]*Event, error)
}

// EventService defines the business logic for events.
type EventService interface {
	CreateEvent(ctx context.Context, in EventInput) (*Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	UpdateEvent(ctx context.Context, id int64, in EventInput) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
}
