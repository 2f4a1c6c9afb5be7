package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

var validate = validator.New()

type attendeeService struct {
	attendeeRepo   domain.AttendeeRepository
	eventRepo      domain.EventRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewAttendeeService(
	attendeeRepo domain.AttendeeRepository,
	eventRepo domain.EventRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.AttendeeService {
	return &attendeeService{
		attendeeRepo:   attendeeRepo,
		eventRepo:      eventRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *attendeeService) RegisterAttendee(ctx context.Context, eventID int64, firstName, lastName, email, phone string) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	a := domain.NewAttendee(eventID,
		strings.TrimSpace(firstName),
		strings.TrimSpace(lastName),
		normalizeEmail(email),
		strings.TrimSpace(phone),
		time.Now().UTC(),
	)
	if err := validateAttendee(a); err != nil {
		return nil, err
	}

	if err := s.attendeeRepo.Register(ctx, a); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
		switch {
		case errors.Is(err, domain.ErrEventNotFound),
			errors.Is(err, domain.ErrDuplicateAttendee),
			errors.Is(err, domain.ErrEventFull):
			return nil, err
		}
		return nil, fmt.Errorf("register attendee: %w", err)
	}
	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeRegistered).Inc()
	s.logger.InfoContext(ctx, "attendee registered", "event_id", eventID, "attendee_id", a.ID)

	s.sendConfirmation(ctx, a)
	return a, nil
}

// sendConfirmation is best effort: the registration is already committed.
func (s *attendeeService) sendConfirmation(ctx context.Context, a *domain.Attendee) {
	if s.emailService == nil {
		return
	}
	e, err := s.eventRepo.GetByID(ctx, a.EventID)
	if err != nil {
		s.logger.WarnContext(ctx, "load event for confirmation email", "event_id", a.EventID, "error", err)
		return
	}
	err = s.emailService.SendRegistrationConfirmation(ctx, &domain.RegistrationEmailData{
		Email:     a.Email,
		FirstName: a.FirstName,
		EventName: e.Name,
		Location:  e.Location,
		StartTime: e.StartTime.Format(time.RFC1123),
		EndTime:   e.EndTime.Format(time.RFC1123),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "registration confirmation email failed", "attendee_id", a.ID, "error", err)
	}
}

func (s *attendeeService) ListAttendees(ctx context.Context, eventID int64, filter domain.AttendeeFilter) ([]*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	filter.FirstName = strings.TrimSpace(filter.FirstName)
	filter.LastName = strings.TrimSpace(filter.LastName)
	filter.Email = strings.TrimSpace(filter.Email)
	return s.attendeeRepo.ListByEvent(ctx, eventID, filter)
}

// CheckIn is idempotent: checking in an attendee twice succeeds both times.
func (s *attendeeService) CheckIn(ctx context.Context, attendeeID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.attendeeRepo.CheckIn(ctx, attendeeID); err != nil {
		return err
	}
	metrics.CheckInsTotal.WithLabelValues("single").Inc()
	s.logger.InfoContext(ctx, "attendee checked in", "attendee_id", attendeeID)
	return nil
}

// BulkCheckIn checks in the event's attendees listed in the email column of
// a CSV document and returns how many were newly checked in.
func (s *attendeeService) BulkCheckIn(ctx context.Context, eventID int64, r io.Reader) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return 0, err
	}
	emails, err := parseEmailColumn(r)
	if err != nil {
		return 0, err
	}
	n, err := s.attendeeRepo.CheckInByEmails(ctx, eventID, emails)
	if err != nil {
		return 0, fmt.Errorf("bulk check-in: %w", err)
	}
	metrics.CheckInsTotal.WithLabelValues("bulk").Add(float64(n))
	s.logger.InfoContext(ctx, "bulk check-in", "event_id", eventID, "emails", len(emails), "checked_in", n)
	return n, nil
}

const utf8BOM = "\ufeff"

// parseEmailColumn returns the distinct, lowercased, non-blank values of the
// "email" column. The header must contain that column, matched case-insensitively.
func parseEmailColumn(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewValidationError("CSV must contain an 'email' column")
	}
	if err != nil {
		return nil, domain.NewValidationError("malformed CSV: " + err.Error())
	}
	col := -1
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if strings.EqualFold(strings.TrimSpace(h), "email") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, domain.NewValidationError("CSV must contain an 'email' column")
	}

	seen := make(map[string]struct{})
	emails := make([]string, 0)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("malformed CSV: " + err.Error())
		}
		if col >= len(rec) {
			continue
		}
		email := normalizeEmail(rec[col])
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateAttendee(a *domain.Attendee) error {
	var msgs []string
	if a.FirstName == "" {
		msgs = append(msgs, "first_name is required")
	}
	if a.LastName == "" {
		msgs = append(msgs, "last_name is required")
	}
	if a.Email == "" {
		msgs = append(msgs, "email is required")
	} else if err := validate.Var(a.Email, "email"); err != nil {
		msgs = append(msgs, "email must be a valid email address")
	}
	if a.PhoneNumber == "" {
		msgs = append(msgs, "phone_number is required")
	}
	if len(msgs) > 0 {
		return domain.NewValidationError(msgs...)
	}
	return nil
}

func registrationOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateAttendee):
		return metrics.OutcomeDuplicate
	case errors.Is(err, domain.ErrEventFull):
		return metrics.OutcomeFull
	case errors.Is(err, domain.ErrEventNotFound):
		return metrics.OutcomeNoEvent
	}
	return metrics.OutcomeError
}
