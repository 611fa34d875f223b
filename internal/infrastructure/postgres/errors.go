package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
)

const (
	uniqueViolationCode = "23505"

	// usersEmailConstraint is the unique index on users.email (see db/migrations).
	usersEmailConstraint = "users_email_key"
)

// mapError turns a driver error into a domain error. A unique violation on the
// email index becomes UserAlreadyExistsError; everything else is a PersistenceError.
func mapError(op string, err error, email string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == usersEmailConstraint {
		return &errs.UserAlreadyExistsError{Email: email}
	}
	return errs.NewPersistenceError(op, err)
}
