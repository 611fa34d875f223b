package entity

import (
	"strings"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
)

// UserStatus is the lifecycle state of a User.
//   - ACTIVE: all operations are permitted
//   - INACTIVE: temporarily suspended, can be reactivated
//   - DELETED: soft-deleted, terminal
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
	StatusDeleted  UserStatus = "DELETED"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeleted:
		return true
	}
	return false
}

func (s UserStatus) String() string { return string(s) }

// ParseUserStatus accepts the enum text in any letter case.
func ParseUserStatus(raw string) (UserStatus, error) {
	s := UserStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", &errs.InvalidArgumentError{Message: "unknown user status: " + raw}
	}
	return s, nil
}
