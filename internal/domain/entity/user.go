package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

// User is the aggregate root of the user domain.
//
// Fields are only readable through accessors; mutation goes through the state
// transitions (Activate, Deactivate, Delete, UpdateProfile), which validate
// before writing anything and stamp updatedAt from the injected Clock.
//
// A User is not safe for concurrent mutation. Load a fresh instance per request.
type User struct {
	id          uuid.UUID
	email       valueobject.Email
	firstName   string
	lastName    string
	phoneNumber *string
	status      UserStatus
	createdAt   time.Time
	updatedAt   time.Time

	clock Clock
}

// UserParams carries the inputs for NewUser. It is used both for registering a
// new user and for rehydrating one from storage.
type UserParams struct {
	ID          uuid.UUID
	Email       *valueobject.Email
	FirstName   string
	LastName    string
	PhoneNumber *string
	Status      UserStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Option func(*User)

// WithClock sets the clock used by state transitions. A nil clock keeps SystemClock.
func WithClock(c Clock) Option {
	return func(u *User) {
		if c != nil {
			u.clock = c
		}
	}
}

const (
	msgFirstNameBlank   = "first name cannot be null or empty"
	msgLastNameBlank    = "last name cannot be null or empty"
	msgUpdatedBeforeNew = "updated date cannot be before created date"
)

// NewUser validates p and builds a User. Names and phone number are stored trimmed.
func NewUser(p UserParams, opts ...Option) (*User, error) {
	switch {
	case p.ID == uuid.Nil:
		return nil, &errs.NullArgumentError{Field: "id"}
	case p.Email == nil || p.Email.IsZero():
		return nil, &errs.NullArgumentError{Field: "email"}
	case p.Status == "":
		return nil, &errs.NullArgumentError{Field: "status"}
	case p.CreatedAt.IsZero():
		return nil, &errs.NullArgumentError{Field: "created_at"}
	case p.UpdatedAt.IsZero():
		return nil, &errs.NullArgumentError{Field: "updated_at"}
	}
	if !p.Status.IsValid() {
		return nil, &errs.InvalidArgumentError{Message: "unknown user status: " + string(p.Status)}
	}
	if err := validateNames(p.FirstName, p.LastName); err != nil {
		return nil, err
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		return nil, &errs.InvalidArgumentError{Message: msgUpdatedBeforeNew}
	}

	u := &User{
		id:          p.ID,
		email:       *p.Email,
		firstName:   strings.TrimSpace(p.FirstName),
		lastName:    strings.TrimSpace(p.LastName),
		phoneNumber: trimPhone(p.PhoneNumber),
		status:      p.Status,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
		clock:       SystemClock{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

func validateNames(firstName, lastName string) error {
	if strings.TrimSpace(firstName) == "" {
		return &errs.InvalidArgumentError{Message: msgFirstNameBlank}
	}
	if strings.TrimSpace(lastName) == "" {
		return &errs.InvalidArgumentError{Message: msgLastNameBlank}
	}
	return nil
}

// trimPhone trims a present phone number. Emptiness after trimming is not rejected.
func trimPhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func (u *User) ID() uuid.UUID            { return u.id }
func (u *User) Email() valueobject.Email { return u.email }
func (u *User) FirstName() string        { return u.firstName }
func (u *User) LastName() string         { return u.lastName }
func (u *User) Status() UserStatus       { return u.status }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }
func (u *User) IsActive() bool           { return u.status == StatusActive }
func (u *User) IsDeleted() bool          { return u.status == StatusDeleted }
func (u *User) FullName() string         { return u.firstName + " " + u.lastName }
func (u *User) Key() uuid.UUID           { return u.id }
func (u *User) HasPhoneNumber() bool     { return u.phoneNumber != nil }

// PhoneNumber returns the phone number and whether one is set.
func (u *User) PhoneNumber() (string, bool) {
	if u.phoneNumber == nil {
		return "", false
	}
	return *u.phoneNumber, true
}

// PhoneNumberPtr returns a copy of the optional phone number, nil when absent.
func (u *User) PhoneNumberPtr() *string {
	if u.phoneNumber == nil {
		return nil
	}
	v := *u.phoneNumber
	return &v
}

// Equal compares identity only; profile and status are ignored.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.id == other.id
}

// Activate moves the user to ACTIVE. Deleted users cannot be activated.
func (u *User) Activate() error {
	if u.status == StatusDeleted {
		return &errs.IllegalStateError{Message: "cannot activate a deleted user"}
	}
	u.status = StatusActive
	u.touch()
	return nil
}

// Deactivate suspends the user. Deleted users cannot be deactivated.
func (u *User) Deactivate() error {
	if u.status == StatusDeleted {
		return &errs.IllegalStateError{Message: "cannot deactivate a deleted user"}
	}
	u.status = StatusInactive
	u.touch()
	return nil
}

// Delete soft-deletes the user. Calling it on a deleted user keeps the status
// and still advances updatedAt.
func (u *User) Delete() {
	u.status = StatusDeleted
	u.touch()
}

// UpdateProfile replaces names and phone number. A nil phone clears it.
func (u *User) UpdateProfile(firstName, lastName string, phoneNumber *string) error {
	if u.status == StatusDeleted {
		return &errs.IllegalStateError{Message: "cannot update a deleted user"}
	}
	if err := validateNames(firstName, lastName); err != nil {
		return err
	}
	u.firstName = strings.TrimSpace(firstName)
	u.lastName = strings.TrimSpace(lastName)
	u.phoneNumber = trimPhone(phoneNumber)
	u.touch()
	return nil
}

// touch stamps updatedAt with the clock reading, never moving it backwards.
func (u *User) touch() {
	now := u.clock.Now()
	if now.Before(u.updatedAt) {
		now = u.updatedAt
	}
	u.updatedAt = now
}

func (u *User) String() string {
	return fmt.Sprintf("User{id=%s, email=%s, firstName=%q, lastName=%q, status=%s, createdAt=%s}",
		u.id, u.email, u.firstName, u.lastName, u.status, u.createdAt.Format(time.RFC3339Nano))
}
