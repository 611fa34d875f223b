package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository/repositorytest"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

var userColumnNames = []string{"id", "email", "first_name", "last_name", "phone_number", "status", "created_at", "updated_at"}

func setupRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewUserRepository(db, entity.SystemClock{}, logger), mock
}

func rowFor(u *entity.User) []driver.Value {
	var phone driver.Value
	if p, ok := u.PhoneNumber(); ok {
		phone = p
	}
	return []driver.Value{u.ID().String(), u.Email().Address(), u.FirstName(), u.LastName(), phone, string(u.Status()), u.CreatedAt(), u.UpdatedAt()}
}

func TestSaveUpsertsRow(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "save@example.com")
	phone, _ := u.PhoneNumber()

	mock.ExpectQuery(`INSERT INTO users (.+) ON CONFLICT \(id\) DO UPDATE SET email = EXCLUDED.email, (.+) created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at RETURNING id, email`).
		WithArgs(u.ID(), "save@example.com", "John", "Doe",
			sql.NullString{String: phone, Valid: true}, "ACTIVE", u.CreatedAt(), u.UpdatedAt()).
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(rowFor(u)...))

	saved, err := repo.Save(context.Background(), u)
	require.NoError(t, err)
	repositorytest.AssertSameFields(t, u, saved)
}

func TestSaveReturnsStoredRow(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "input@example.com")
	stored := rowFor(u)
	stored[1] = "stored@example.com"
	stored[2] = "Stored"

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(stored...))

	saved, err := repo.Save(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "stored@example.com", saved.Email().Address())
	assert.Equal(t, "Stored", saved.FirstName())
}

func TestSaveWritesNullPhone(t *testing.T) {
	repo, mock := setupRepo(t)
	email := valueobject.MustEmail("nophone@example.com")
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u, err := entity.NewUser(entity.UserParams{
		ID: uuid.New(), Email: &email, FirstName: "A", LastName: "B",
		Status: entity.StatusInactive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.ID(), "nophone@example.com", "A", "B", nil, "INACTIVE", now, now).
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(rowFor(u)...))

	saved, err := repo.Save(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, saved.HasPhoneNumber())
}

func TestSaveMapsEmailUniqueViolation(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "dup@example.com")

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Save(context.Background(), u)
	require.ErrorIs(t, err, errs.ErrUserAlreadyExists)

	var exists *errs.UserAlreadyExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, "dup@example.com", exists.Email)
}

func TestSaveWrapsDriverErrors(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "broken@example.com")
	cause := errors.New("connection reset")

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(cause)

	_, err := repo.Save(context.Background(), u)
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.ErrorIs(t, err, cause)

	var pe *errs.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save", pe.Op)
}

func TestFindByIDReturnsUser(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "find@example.com")

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(u.ID()).
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(rowFor(u)...))

	found, err := repo.FindByID(context.Background(), u.ID())
	require.NoError(t, err)
	repositorytest.AssertSameFields(t, u, found)
}

func TestFindByIDAbsent(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	found, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindByEmailQueriesNormalizedAddress(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "mixed@example.com")

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("mixed@example.com").
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(rowFor(u)...))

	found, err := repo.FindByEmail(context.Background(), valueobject.MustEmail(" MIXED@Example.Com "))
	require.NoError(t, err)
	repositorytest.AssertSameFields(t, u, found)
}

func TestFindRejectsCorruptRows(t *testing.T) {
	repo, mock := setupRepo(t)
	u := repositorytest.NewUser(t, "corrupt@example.com")
	row := rowFor(u)
	row[5] = "ARCHIVED"

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumnNames).AddRow(row...))

	_, err := repo.FindByID(context.Background(), u.ID())
	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestFindWrapsQueryErrors(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WillReturnError(errors.New("timeout"))

	_, err := repo.FindByEmail(context.Background(), valueobject.MustEmail("x@example.com"))
	var pe *errs.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "find_by_email", pe.Op)
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteUser(context.Background(), id))
	require.NoError(t, repo.DeleteUser(context.Background(), id))
}

func TestDeleteUserWrapsErrors(t *testing.T) {
	repo, mock := setupRepo(t)
	mock.ExpectExec(`DELETE FROM users`).WillReturnError(errors.New("read-only transaction"))

	err := repo.DeleteUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrPersistence)
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("here@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("gone@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsByEmail(context.Background(), valueobject.MustEmail("Here@Example.com"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByEmail(context.Background(), valueobject.MustEmail("gone@example.com"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithTxUsesTransaction(t *testing.T) {
	repo, mock := setupRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	db := repo.db.(*sql.DB)
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.WithTx(tx).DeleteUser(context.Background(), id))
	require.NoError(t, tx.Commit())
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("save", nil, ""))

	other := &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}
	assert.ErrorIs(t, mapError("save", other, "a@b.co"), errs.ErrPersistence)

	check := &pgconn.PgError{Code: "23514", ConstraintName: "users_updated_after_created"}
	err := mapError("save", check, "")
	assert.ErrorIs(t, err, errs.ErrPersistence)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}
