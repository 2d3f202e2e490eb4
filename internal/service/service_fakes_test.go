package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/application-tracker/internal/domain"
	"github.com/spec-kit/application-tracker/internal/events"
	"github.com/spec-kit/application-tracker/internal/repository"
)

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) add(user domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	f.users[user.ID] = &user
	return &user
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) FindByRoleAndDepartment(_ context.Context, role domain.UserRole, department string) (*domain.User, error) {
	return f.findFirst(func(u *domain.User) bool {
		return u.Role == role && u.Department == department
	})
}

func (f *fakeUserRepo) FindByRole(_ context.Context, role domain.UserRole) (*domain.User, error) {
	return f.findFirst(func(u *domain.User) bool { return u.Role == role })
}

// findFirst mirrors the ORDER BY id ASC LIMIT 1 tie-break.
func (f *fakeUserRepo) findFirst(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if match(f.users[id]) {
			clone := *f.users[id]
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) SetEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerified = true
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	hash := passwordHash
	user.PasswordHash = &hash
	return nil
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// lastCode returns the plaintext code from the most recent otp_issued event.
func (d *captureDispatcher) lastCode() string {
	issued := d.byType(events.EventOTPIssued)
	if len(issued) == 0 {
		return ""
	}
	payload, ok := issued[len(issued)-1].Payload.(events.OTPIssuedPayload)
	if !ok {
		return ""
	}
	return payload.Code
}

// fakeLedger binds in-memory application and action repositories. InTx
// runs the callback against the same stores; guard failures surface
// before any write, which is what the transition tests rely on.
type fakeLedger struct {
	apps    *memApplicationRepo
	actions *memActionRepo
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		apps:    &memApplicationRepo{rows: map[string]*domain.Application{}},
		actions: &memActionRepo{},
	}
}

func (l *fakeLedger) Applications() repository.ApplicationRepository { return l.apps }
func (l *fakeLedger) Actions() repository.ActionRepository           { return l.actions }

func (l *fakeLedger) InTx(_ context.Context, fn func(repository.Ledger) error) error {
	return fn(l)
}

type memApplicationRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Application
	seq  int
}

func (r *memApplicationRepo) Create(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	app.ID = uuid.NewString()
	app.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	app.UpdatedAt = app.CreatedAt
	clone := *app
	r.rows[app.ID] = &clone
	return nil
}

func (r *memApplicationRepo) Update(_ context.Context, app *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[app.ID]; !ok {
		return pgx.ErrNoRows
	}
	app.UpdatedAt = time.Now()
	clone := *app
	r.rows[app.ID] = &clone
	return nil
}

func (r *memApplicationRepo) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (r *memApplicationRepo) ListByParticipant(_ context.Context, userID string) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Application
	for _, app := range r.rows {
		if app.CreatedBy == userID || app.CurrentHandler == userID {
			out = append(out, *app)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memActionRepo struct {
	mu   sync.Mutex
	rows []domain.ApplicationAction
	seq  int
}

func (r *memActionRepo) Create(_ context.Context, action *domain.ApplicationAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	action.ID = uuid.NewString()
	action.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	r.rows = append(r.rows, *action)
	return nil
}

func (r *memActionRepo) ListByApplication(_ context.Context, applicationID string) ([]domain.ApplicationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ApplicationAction
	for _, action := range r.rows {
		if action.ApplicationID == applicationID {
			out = append(out, action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
