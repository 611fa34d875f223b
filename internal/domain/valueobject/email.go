package valueobject

import (
	"regexp"
	"strings"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Email is an immutable, normalized email address (trimmed and lowercased).
// The zero value is not a valid address; obtain one through NewEmail.
//
// Email is comparable, so == and map keys operate on the normalized form.
type Email struct {
	address string
}

// NewEmail normalizes and validates raw. The pattern is tested against the
// normalized form, never the raw input.
func NewEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Email{}, &errs.InvalidEmailError{Reason: errs.EmailEmpty, Input: raw}
	}
	normalized := strings.ToLower(trimmed)
	if !emailPattern.MatchString(normalized) {
		return Email{}, &errs.InvalidEmailError{Reason: errs.EmailFormat, Input: raw}
	}
	return Email{address: normalized}, nil
}

// MustEmail is NewEmail for fixtures and constants; it panics on invalid input.
func MustEmail(raw string) Email {
	e, err := NewEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) Address() string { return e.address }

func (e Email) String() string { return e.address }

func (e Email) Equal(other Email) bool { return e.address == other.address }

// IsZero reports whether e was never initialized by NewEmail.
func (e Email) IsZero() bool { return e.address == "" }

func (e Email) MarshalText() ([]byte, error) {
	return []byte(e.address), nil
}

// UnmarshalText validates the input the same way NewEmail does.
func (e *Email) UnmarshalText(text []byte) error {
	parsed, err := NewEmail(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
