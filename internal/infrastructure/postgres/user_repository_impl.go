package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// userRow mirrors the users table.
type userRow struct {
	ID          uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber sql.NullString
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserRepository struct {
	db     DBTX
	clock  entity.Clock
	logger *logrus.Logger
}

func NewUserRepository(db DBTX, clock entity.Clock, logger *logrus.Logger) *UserRepository {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserRepository{db: db, clock: clock, logger: logger}
}

// WithTx returns a repository bound to tx, sharing clock and logger.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx, clock: r.clock, logger: r.logger}
}

const (
	userColumns       = `id, email, first_name, last_name, phone_number, status, created_at, updated_at`
	selectUserColumns = `SELECT ` + userColumns + ` FROM users`
)

// Save inserts u or replaces every column of the row with the same id. The
// returned User is built from the row postgres reports back.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	r.logger.WithField("user_id", u.ID()).Debug("saving user")
	in := toRow(u)

	row, err := scanRow(r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, phone_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone_number = EXCLUDED.phone_number,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns,
		in.ID, in.Email, in.FirstName, in.LastName, in.PhoneNumber, in.Status, in.CreatedAt, in.UpdatedAt,
	))
	if err != nil {
		r.logger.WithError(err).WithField("user_id", u.ID()).Debug("save user failed")
		return nil, mapError("save", err, in.Email)
	}

	saved, err := r.toDomain(row)
	if err != nil {
		return nil, err
	}
	r.logger.WithField("user_id", u.ID()).Debug("user saved")
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.logger.WithField("user_id", id).Debug("finding user by id")
	return r.findOne(ctx, "find_by_id", selectUserColumns+` WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email valueobject.Email) (*entity.User, error) {
	r.logger.WithField("email", email.Address()).Debug("finding user by email")
	return r.findOne(ctx, "find_by_email", selectUserColumns+` WHERE email = $1`, email.Address())
}

func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.logger.WithField("user_id", id).Debug("deleting user")
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError("delete", err, "")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.WithField("user_id", id).Debug("delete matched no rows")
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email.Address()).Scan(&exists)
	if err != nil {
		return false, mapError("exists_by_email", err, email.Address())
	}
	r.logger.WithFields(logrus.Fields{"email": email.Address(), "exists": exists}).Debug("checked user email")
	return exists, nil
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg any) (*entity.User, error) {
	row, err := scanRow(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err, "")
	}
	return r.toDomain(row)
}

func scanRow(sc *sql.Row) (userRow, error) {
	var row userRow
	err := sc.Scan(
		&row.ID, &row.Email, &row.FirstName, &row.LastName,
		&row.PhoneNumber, &row.Status, &row.CreatedAt, &row.UpdatedAt,
	)
	return row, err
}

func toRow(u *entity.User) userRow {
	row := userRow{
		ID:        u.ID(),
		Email:     u.Email().Address(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Status:    u.Status().String(),
		CreatedAt: u.CreatedAt().UTC(),
		UpdatedAt: u.UpdatedAt().UTC(),
	}
	if phone, ok := u.PhoneNumber(); ok {
		row.PhoneNumber = sql.NullString{String: phone, Valid: true}
	}
	return row
}

// toDomain rehydrates a row through the entity constructor, so a corrupt row
// is reported instead of producing a User that breaks its invariants.
func (r *UserRepository) toDomain(row userRow) (*entity.User, error) {
	email, err := valueobject.NewEmail(row.Email)
	if err != nil {
		return nil, errs.NewPersistenceError("map_row", err)
	}
	status, err := entity.ParseUserStatus(row.Status)
	if err != nil {
		return nil, errs.NewPersistenceError("map_row", err)
	}
	var phone *string
	if row.PhoneNumber.Valid {
		phone = &row.PhoneNumber.String
	}
	u, err := entity.NewUser(entity.UserParams{
		ID:          row.ID,
		Email:       &email,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		PhoneNumber: phone,
		Status:      status,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, entity.WithClock(r.clock))
	if err != nil {
		return nil, errs.NewPersistenceError("map_row", err)
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
