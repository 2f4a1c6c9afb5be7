package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventmanager/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testTimeout = 5 * time.Second

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu            sync.Mutex
	byID          map[int64]*domain.Event
	nextID        int64
	statusUpdates int
	err           error // if set, every call returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[int64]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = f.nextID
	f.nextID++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Update(_ context.Context, id int64, in domain.EventInput) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	e.Name, e.Description, e.StartTime, e.EndTime = in.Name, in.Description, in.StartTime, in.EndTime
	e.Location, e.MaxAttendees = in.Location, in.MaxAttendees
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) UpdateStatus(_ context.Context, id int64, status domain.EventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if e, ok := f.byID[id]; ok && e.Status != status {
		e.Status = status
		f.statusUpdates++
	}
	return nil
}

func (f *fakeEventRepo) RefreshStatuses(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, e := range f.byID {
		if e.Refresh(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeEventRepo) List(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.Location != "" && e.Location != filter.Location {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeAttendeeRepo enforces the same registration rules as the postgres repository.
type fakeAttendeeRepo struct {
	mu     sync.Mutex
	events *fakeEventRepo
	rows   []*domain.Attendee
	nextID int64
	err    error
}

func newFakeAttendeeRepo(events *fakeEventRepo) *fakeAttendeeRepo {
	return &fakeAttendeeRepo{events: events, nextID: 1}
}

func (f *fakeAttendeeRepo) Register(ctx context.Context, a *domain.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e, err := f.events.GetByID(ctx, a.EventID)
	if err != nil {
		return err
	}
	count := 0
	for _, r := range f.rows {
		if r.EventID != a.EventID {
			continue
		}
		if r.Email == a.Email {
			return domain.ErrDuplicateAttendee
		}
		count++
	}
	if count >= e.MaxAttendees {
		return domain.ErrEventFull
	}
	a.ID = f.nextID
	f.nextID++
	cp := *a
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeAttendeeRepo) ListByEvent(_ context.Context, eventID int64, filter domain.AttendeeFilter) ([]*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	contains := func(v, sub string) bool {
		return sub == "" || strings.Contains(strings.ToLower(v), strings.ToLower(sub))
	}
	out := make([]*domain.Attendee, 0)
	for _, r := range f.rows {
		if r.EventID != eventID ||
			!contains(r.FirstName, filter.FirstName) ||
			!contains(r.LastName, filter.LastName) ||
			!contains(r.Email, filter.Email) {
			continue
		}
		if filter.CheckInStatus != nil && r.CheckInStatus != *filter.CheckInStatus {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAttendeeRepo) CheckIn(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range f.rows {
		if r.ID == id {
			r.CheckInStatus = true
			return nil
		}
	}
	return domain.ErrAttendeeNotFound
}

func (f *fakeAttendeeRepo) CheckInByEmails(_ context.Context, eventID int64, emails []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[e] = true
	}
	var n int64
	for _, r := range f.rows {
		if r.EventID == eventID && set[r.Email] && !r.CheckInStatus {
			r.CheckInStatus = true
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	byName map[string]*domain.User
	nextID int64
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byName: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byName[u.Username]; ok {
		return domain.ErrUsernameTaken
	}
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.byName[u.Username] = &cp
	return nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// fakeHasher stores salt:password and counts comparisons.
type fakeHasher struct {
	compares int
}

func (h *fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (h *fakeHasher) Hash(salt, password string) (string, error) {
	return salt + ":" + password, nil
}

func (h *fakeHasher) Compare(hash, salt, password string) error {
	h.compares++
	if hash != salt+":"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(subject string) (string, error) { return "token-for-" + subject, nil }

type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.RegistrationEmailData
	err  error
}

func (f *fakeEmailService) SendRegistrationConfirmation(_ context.Context, data *domain.RegistrationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}
