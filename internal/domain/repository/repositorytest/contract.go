// Package repositorytest holds behaviour checks shared by every
// UserRepository adapter.
package repositorytest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

var base = time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

// NewUser builds a valid ACTIVE user for address with a fresh id.
func NewUser(t *testing.T, address string) *entity.User {
	t.Helper()
	email := valueobject.MustEmail(address)
	phone := "+15550100"
	u, err := entity.NewUser(entity.UserParams{
		ID:          uuid.New(),
		Email:       &email,
		FirstName:   "John",
		LastName:    "Doe",
		PhoneNumber: &phone,
		Status:      entity.StatusActive,
		CreatedAt:   base,
		UpdatedAt:   base,
	})
	require.NoError(t, err)
	return u
}

// AssertSameFields checks that got reproduces every observable field of want.
func AssertSameFields(t *testing.T, want, got *entity.User) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.Equal(got))
	assert.Equal(t, want.Email(), got.Email())
	assert.Equal(t, want.FirstName(), got.FirstName())
	assert.Equal(t, want.LastName(), got.LastName())
	assert.Equal(t, want.PhoneNumberPtr(), got.PhoneNumberPtr())
	assert.Equal(t, want.Status(), got.Status())
	assert.True(t, want.CreatedAt().Equal(got.CreatedAt()), "created_at %s != %s", want.CreatedAt(), got.CreatedAt())
	assert.True(t, want.UpdatedAt().Equal(got.UpdatedAt()), "updated_at %s != %s", want.UpdatedAt(), got.UpdatedAt())
}

// RunUserRepositoryContract exercises the port semantics against the adapter
// returned by newRepo. newRepo is called once per subtest.
func RunUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	ctx := context.Background()

	t.Run("save then find by id round trips", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "round.trip@example.com")

		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)
		AssertSameFields(t, u, saved)

		found, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		AssertSameFields(t, u, found)
	})

	t.Run("find by email uses normalized address", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "lookup@example.com")
		_, err := repo.Save(ctx, u)
		require.NoError(t, err)

		found, err := repo.FindByEmail(ctx, valueobject.MustEmail("  LOOKUP@Example.com "))
		require.NoError(t, err)
		AssertSameFields(t, u, found)

		exists, err := repo.ExistsByEmail(ctx, valueobject.MustEmail("Lookup@example.COM"))
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("absent users", func(t *testing.T) {
		repo := newRepo(t)

		byID, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, byID)

		byEmail, err := repo.FindByEmail(ctx, valueobject.MustEmail("nobody@example.com"))
		require.NoError(t, err)
		assert.Nil(t, byEmail)

		exists, err := repo.ExistsByEmail(ctx, valueobject.MustEmail("nobody@example.com"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("save replaces existing row", func(t *testing.T) {
		repo := newRepo(t)
		clock := entity.NewManualClock(base)
		u := NewUser(t, "upsert@example.com")
		_, err := repo.Save(ctx, u)
		require.NoError(t, err)

		loaded, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		mutated, err := entity.NewUser(entity.UserParams{
			ID:        loaded.ID(),
			Email:     ptr(loaded.Email()),
			FirstName: loaded.FirstName(),
			LastName:  loaded.LastName(),
			Status:    loaded.Status(),
			CreatedAt: loaded.CreatedAt(),
			UpdatedAt: loaded.UpdatedAt(),
		}, entity.WithClock(clock))
		require.NoError(t, err)
		clock.Advance(time.Minute)
		require.NoError(t, mutated.UpdateProfile("Jane", "Smith", nil))
		require.NoError(t, mutated.Deactivate())

		_, err = repo.Save(ctx, mutated)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		AssertSameFields(t, mutated, found)
		assert.False(t, found.HasPhoneNumber())
	})

	t.Run("save replaces email and created_at for the same id", func(t *testing.T) {
		repo := newRepo(t)
		first := NewUser(t, "first@example.com")
		_, err := repo.Save(ctx, first)
		require.NoError(t, err)

		later := base.Add(time.Hour)
		replacement, err := entity.NewUser(entity.UserParams{
			ID:        first.ID(),
			Email:     ptr(valueobject.MustEmail("second@example.com")),
			FirstName: "Jane",
			LastName:  "Roe",
			Status:    entity.StatusActive,
			CreatedAt: later,
			UpdatedAt: later,
		})
		require.NoError(t, err)

		saved, err := repo.Save(ctx, replacement)
		require.NoError(t, err)
		AssertSameFields(t, replacement, saved)

		found, err := repo.FindByID(ctx, first.ID())
		require.NoError(t, err)
		AssertSameFields(t, replacement, found)

		byNew, err := repo.FindByEmail(ctx, replacement.Email())
		require.NoError(t, err)
		AssertSameFields(t, replacement, byNew)

		byOld, err := repo.FindByEmail(ctx, first.Email())
		require.NoError(t, err)
		assert.Nil(t, byOld)

		exists, err := repo.ExistsByEmail(ctx, first.Email())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "gone@example.com")
		_, err := repo.Save(ctx, u)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteUser(ctx, u.ID()))

		found, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		assert.Nil(t, found)

		exists, err := repo.ExistsByEmail(ctx, u.Email())
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.DeleteUser(ctx, u.ID()))
		require.NoError(t, repo.DeleteUser(ctx, uuid.New()))
	})

	t.Run("returned users are detached from the store", func(t *testing.T) {
		repo := newRepo(t)
		u := NewUser(t, "detached@example.com")
		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)

		saved.Delete()
		require.NoError(t, u.Deactivate())

		found, err := repo.FindByID(ctx, u.ID())
		require.NoError(t, err)
		assert.Equal(t, entity.StatusActive, found.Status())
	})
}

func ptr[T any](v T) *T { return &v }
