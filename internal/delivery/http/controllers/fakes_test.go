package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeEventService struct {
	err        error
	event      *domain.Event
	events     []*domain.Event
	lastID     int64
	lastInput  domain.EventInput
	lastFilter domain.EventFilter
}

func (f *fakeEventService) CreateEvent(_ context.Context, in domain.EventInput) (*domain.Event, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: 1, Name: in.Name, Location: in.Location, MaxAttendees: in.MaxAttendees, Status: domain.EventStatusScheduled}, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, id int64, in domain.EventInput) (*domain.Event, error) {
	f.lastID = id
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: id, Name: in.Name, Location: in.Location, MaxAttendees: in.MaxAttendees}, nil
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	f.lastFilter = filter
	return f.events, f.err
}

type fakeAttendeeService struct {
	err          error
	attendees    []*domain.Attendee
	checkedIn    int64
	lastEventID  int64
	lastID       int64
	lastFilter   domain.AttendeeFilter
	lastEmail    string
	lastUploaded string
}

func (f *fakeAttendeeService) RegisterAttendee(_ context.Context, eventID int64, firstName, lastName, email, phone string) (*domain.Attendee, error) {
	f.lastEventID = eventID
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Attendee{ID: 7, EventID: eventID, FirstName: firstName, LastName: lastName, Email: email, PhoneNumber: phone}, nil
}

func (f *fakeAttendeeService) ListAttendees(_ context.Context, eventID int64, filter domain.AttendeeFilter) ([]*domain.Attendee, error) {
	f.lastEventID = eventID
	f.lastFilter = filter
	return f.attendees, f.err
}

func (f *fakeAttendeeService) CheckIn(_ context.Context, attendeeID int64) error {
	f.lastID = attendeeID
	return f.err
}

func (f *fakeAttendeeService) BulkCheckIn(_ context.Context, eventID int64, csv io.Reader) (int64, error) {
	f.lastEventID = eventID
	b, _ := io.ReadAll(csv)
	f.lastUploaded = string(b)
	if f.err != nil {
		return 0, f.err
	}
	return f.checkedIn, nil
}

type fakeAuthService struct {
	registerErr  error
	loginErr     error
	token        string
	lastUsername string
	lastPassword string
}

func (f *fakeAuthService) Register(_ context.Context, username, password string) (*domain.User, error) {
	f.lastUsername, f.lastPassword = username, password
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: 1, Username: username}, nil
}

func (f *fakeAuthService) Login(_ context.Context, username, password string) (string, error) {
	f.lastUsername, f.lastPassword = username, password
	return f.token, f.loginErr
}

func decodeEnvelope(t *testing.T, body io.Reader) helpers.APIResponse {
	t.Helper()
	var env helpers.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&env), "response must be valid JSON envelope")
	return env
}

// decodeBody decodes a bare (non-enveloped) success body into dest.
func decodeBody(t *testing.T, body io.Reader, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(dest), "response must be valid JSON")
}

// decodeData re-decodes the envelope's data into dest.
func decodeData(t *testing.T, env helpers.APIResponse, dest any) {
	t.Helper()
	b, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, dest))
}
