package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
	"github.com/oksasatya/ecommerce-user-service/internal/infrastructure/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []UserEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingRepo fails every call with err.
type failingRepo struct{ err error }

func (f failingRepo) Save(context.Context, *entity.User) (*entity.User, error) { return nil, f.err }
func (f failingRepo) FindByID(context.Context, uuid.UUID) (*entity.User, error) {
	return nil, f.err
}
func (f failingRepo) FindByEmail(context.Context, valueobject.Email) (*entity.User, error) {
	return nil, f.err
}
func (f failingRepo) DeleteUser(context.Context, uuid.UUID) error { return f.err }
func (f failingRepo) ExistsByEmail(context.Context, valueobject.Email) (bool, error) {
	return false, f.err
}

var _ repository.UserRepository = failingRepo{}

var start = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repo  *memory.UserRepository
	pub   *recordingPublisher
	clock *entity.ManualClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clock := entity.NewManualClock(start)
	repo := memory.NewUserRepository(clock)
	pub := &recordingPublisher{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return fixture{svc: NewService(repo, pub, clock, logger), repo: repo, pub: pub, clock: clock}
}

func (f fixture) register(t *testing.T, email string) *entity.User {
	t.Helper()
	u, err := f.svc.RegisterUser(context.Background(), RegisterUserInput{Email: email, FirstName: "John", LastName: "Doe"})
	require.NoError(t, err)
	return u
}

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	phone := " +12345678 "

	u, err := f.svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:       "  New.User@Example.COM ",
		FirstName:   " John ",
		LastName:    "Doe",
		PhoneNumber: &phone,
	})
	require.NoError(t, err)

	assert.Equal(t, "new.user@example.com", u.Email().Address())
	assert.Equal(t, "John", u.FirstName())
	assert.Equal(t, entity.StatusActive, u.Status())
	assert.Equal(t, start, u.CreatedAt())
	assert.Equal(t, start, u.UpdatedAt())
	p, _ := u.PhoneNumber()
	assert.Equal(t, "+12345678", p)
	assert.Equal(t, 1, f.repo.Len())

	require.Len(t, f.pub.events, 1)
	evt := f.pub.events[0]
	assert.Equal(t, EventUserRegistered, evt.Type)
	assert.Equal(t, u.ID(), evt.UserID)
	assert.Equal(t, "new.user@example.com", evt.Email)
	assert.Equal(t, entity.StatusActive, evt.Status)
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "dup@example.com")

	_, err := f.svc.RegisterUser(context.Background(), RegisterUserInput{Email: "DUP@example.com", FirstName: "A", LastName: "B"})
	require.ErrorIs(t, err, errs.ErrUserAlreadyExists)

	var ae *errs.UserAlreadyExistsError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "dup@example.com", ae.Email)
	assert.Equal(t, 1, f.repo.Len())
}

func TestRegisterUserValidation(t *testing.T) {
	cases := []struct {
		name string
		in   RegisterUserInput
		kind error
	}{
		{"empty email", RegisterUserInput{Email: "", FirstName: "A", LastName: "B"}, errs.ErrInvalidEmail},
		{"bad email", RegisterUserInput{Email: "testexample.com", FirstName: "A", LastName: "B"}, errs.ErrInvalidEmail},
		{"blank first name", RegisterUserInput{Email: "a@b.co", FirstName: " ", LastName: "B"}, errs.ErrInvalidArgument},
		{"blank last name", RegisterUserInput{Email: "a@b.co", FirstName: "A", LastName: ""}, errs.ErrInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.RegisterUser(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, 0, f.repo.Len())
			assert.Empty(t, f.pub.events)
		})
	}
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "get@example.com")

	found, err := f.svc.GetUser(context.Background(), u.ID())
	require.NoError(t, err)
	assert.True(t, u.Equal(found))

	missing := uuid.New()
	_, err = f.svc.GetUser(context.Background(), missing)
	require.ErrorIs(t, err, errs.ErrUserNotFound)
	var nf *errs.UserNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, missing, nf.ID)
}

func TestGetUserByEmail(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "lookup@example.com")

	found, err := f.svc.GetUserByEmail(context.Background(), " LOOKUP@example.com")
	require.NoError(t, err)
	assert.True(t, u.Equal(found))

	_, err = f.svc.GetUserByEmail(context.Background(), "nobody@example.com")
	var nf *errs.UserNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nobody@example.com", nf.Email)

	_, err = f.svc.GetUserByEmail(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, errs.ErrInvalidEmail)
}

func TestUpdateProfilePersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "profile@example.com")
	phone := "+9876543210"

	t1 := f.clock.Advance(time.Minute)
	updated, err := f.svc.UpdateProfile(ctx, u.ID(), UpdateProfileInput{FirstName: "Jane", LastName: "Smith", PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", updated.FullName())
	assert.Equal(t, t1, updated.UpdatedAt())

	stored, err := f.svc.GetUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.FirstName())
	assert.Equal(t, "Smith", stored.LastName())
	p, _ := stored.PhoneNumber()
	assert.Equal(t, "+9876543210", p)
	assert.Equal(t, t1, stored.UpdatedAt())

	f.clock.Advance(time.Minute)
	_, err = f.svc.UpdateProfile(ctx, u.ID(), UpdateProfileInput{FirstName: "", LastName: "Smith"})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	stored, err = f.svc.GetUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.FirstName())
	assert.Equal(t, t1, stored.UpdatedAt())

	assert.Equal(t, []EventType{EventUserRegistered, EventUserProfileUpdated}, f.pub.types())
}

func TestLifecycleThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "cycle@example.com")

	f.clock.Advance(time.Second)
	got, err := f.svc.DeactivateUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInactive, got.Status())

	f.clock.Advance(time.Second)
	got, err = f.svc.ActivateUser(ctx, u.ID())
	require.NoError(t, err)
	assert.True(t, got.IsActive())

	t3 := f.clock.Advance(time.Second)
	got, err = f.svc.DeleteUser(ctx, u.ID())
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
	assert.Equal(t, t3, got.UpdatedAt())

	// soft delete keeps the row
	stored, err := f.svc.GetUser(ctx, u.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted())

	f.clock.Advance(time.Second)
	_, err = f.svc.ActivateUser(ctx, u.ID())
	require.ErrorIs(t, err, errs.ErrIllegalState)
	_, err = f.svc.DeactivateUser(ctx, u.ID())
	require.ErrorIs(t, err, errs.ErrIllegalState)
	_, err = f.svc.UpdateProfile(ctx, u.ID(), UpdateProfileInput{FirstName: "A", LastName: "B"})
	require.ErrorIs(t, err, errs.ErrIllegalState)

	stored, err = f.svc.GetUser(ctx, u.ID())
	require.NoError(t, err)
	assert.Equal(t, t3, stored.UpdatedAt())

	assert.Equal(t, []EventType{
		EventUserRegistered, EventUserDeactivated, EventUserActivated, EventUserDeleted,
	}, f.pub.types())
}

func TestTransitionsOnMissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	_, err := f.svc.ActivateUser(ctx, id)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	_, err = f.svc.DeactivateUser(ctx, id)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	_, err = f.svc.DeleteUser(ctx, id)
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
	_, err = f.svc.UpdateProfile(ctx, id, UpdateProfileInput{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestPurgeUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "purge@example.com")

	require.NoError(t, f.svc.PurgeUser(ctx, u.ID()))
	require.NoError(t, f.svc.PurgeUser(ctx, u.ID()))
	assert.Equal(t, 0, f.repo.Len())

	_, err := f.svc.GetUser(ctx, u.ID())
	assert.ErrorIs(t, err, errs.ErrUserNotFound)

	// the email is free again
	_, err = f.svc.RegisterUser(ctx, RegisterUserInput{Email: "purge@example.com", FirstName: "A", LastName: "B"})
	assert.NoError(t, err)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	u := f.register(t, "nobroker@example.com")
	_, err := f.svc.DeactivateUser(context.Background(), u.ID())
	require.NoError(t, err)
	assert.Len(t, f.pub.events, 2)
}

func TestRepositoryErrorsSurfaceUnchanged(t *testing.T) {
	cause := errs.NewPersistenceError("find_by_id", errors.New("db down"))
	svc := NewService(failingRepo{err: cause}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.GetUser(ctx, uuid.New())
	assert.Same(t, cause, err)

	_, err = svc.RegisterUser(ctx, RegisterUserInput{Email: "a@b.co", FirstName: "A", LastName: "B"})
	assert.Same(t, cause, err)

	_, err = svc.GetUserByEmail(ctx, "a@b.co")
	assert.ErrorIs(t, err, errs.ErrPersistence)

	assert.ErrorIs(t, svc.PurgeUser(ctx, uuid.New()), errs.ErrPersistence)
}
