// Package errs defines the failure kinds raised by the user domain, its
// application services and its persistence adapters.
//
// Every typed error matches its sentinel with errors.Is, so callers can branch
// on the kind and still reach the details with errors.As.
package errs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrNullArgument      = errors.New("null argument")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrIllegalState      = errors.New("illegal state")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrPersistence       = errors.New("persistence failure")
)

// EmailReason tells why an email address was rejected.
type EmailReason string

const (
	EmailEmpty  EmailReason = "empty"
	EmailFormat EmailReason = "format"
)

type InvalidEmailError struct {
	Reason EmailReason
	Input  string
}

func (e *InvalidEmailError) Error() string {
	if e.Reason == EmailEmpty {
		return "email address cannot be null or empty"
	}
	return fmt.Sprintf("invalid email format: %s", e.Input)
}

func (e *InvalidEmailError) Is(target error) bool { return target == ErrInvalidEmail }

// NullArgumentError reports a required input that was not supplied.
type NullArgumentError struct {
	Field string
}

func (e *NullArgumentError) Error() string {
	return fmt.Sprintf("%s cannot be null", e.Field)
}

func (e *NullArgumentError) Is(target error) bool { return target == ErrNullArgument }

type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// IllegalStateError reports a transition attempted from a forbidden status.
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string { return e.Message }

func (e *IllegalStateError) Is(target error) bool { return target == ErrIllegalState }

type UserAlreadyExistsError struct {
	Email string
}

func (e *UserAlreadyExistsError) Error() string {
	return "user already exists with email: " + e.Email
}

func (e *UserAlreadyExistsError) Is(target error) bool { return target == ErrUserAlreadyExists }

// UserNotFoundError carries the key of the failed lookup: either ID or Email is set.
type UserNotFoundError struct {
	ID    uuid.UUID
	Email string
}

func (e *UserNotFoundError) Error() string {
	if e.Email != "" {
		return "user not found with email: " + e.Email
	}
	return "user not found with id: " + e.ID.String()
}

func (e *UserNotFoundError) Is(target error) bool { return target == ErrUserNotFound }

// PersistenceError wraps a storage-layer failure. Op names the repository
// operation that failed (e.g. "save", "find_by_email").
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persistence: %s failed", e.Op)
	}
	return fmt.Sprintf("persistence: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the validation or state kinds
// raised by the entity and value objects themselves.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrNullArgument) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrIllegalState)
}
