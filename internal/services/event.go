package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

type eventService struct {
	eventRepo      domain.EventRepository
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

func NewEventService(eventRepo domain.EventRepository, logger *slog.Logger, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, in domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := domain.NewEvent(in.Name, in.Description, in.StartTime.UTC(), in.EndTime.UTC(), in.Location, in.MaxAttendees, s.now().UTC())
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event created", "event_id", e.ID, "max_attendees", e.MaxAttendees)
	// An event created inside or after its own window is not scheduled.
	s.refresh(ctx, e)
	return e, nil
}

// GetEvent returns the event with its status recomputed at the current time.
func (s *eventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, e)
	return e, nil
}

// UpdateEvent replaces every writable field. The status is then recomputed
// under the monotonic rule, so moving an event into the future does not
// revert a completed event.
func (s *eventService) UpdateEvent(ctx context.Context, id int64, in domain.EventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.StartTime, in.EndTime = in.StartTime.UTC(), in.EndTime.UTC()
	e, err := s.eventRepo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, e)
	return e, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.eventRepo.RefreshStatuses(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("refresh statuses: %w", err)
	}
	if n > 0 {
		metrics.StatusTransitionsTotal.Add(float64(n))
		s.logger.DebugContext(ctx, "event statuses refreshed", "changed", n)
	}
	return s.eventRepo.List(ctx, filter)
}

// refresh recomputes e.Status and persists a change. A failed write is only
// logged: the returned status is correct and the next read retries the write.
func (s *eventService) refresh(ctx context.Context, e *domain.Event) {
	if !e.Refresh(s.now()) {
		return
	}
	if err := s.eventRepo.UpdateStatus(ctx, e.ID, e.Status); err != nil {
		s.logger.WarnContext(ctx, "persist event status", "event_id", e.ID, "status", e.Status, "error", err)
		return
	}
	metrics.StatusTransitionsTotal.Inc()
}
