package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

// UserRepository is the persistence port for the User aggregate. Adapters accept
// and return domain values; any row type stays inside the adapter.
//
// Emails are stored and looked up in normalized form. Lookups report absence
// as (nil, nil); storage failures surface as *errs.PersistenceError.
type UserRepository interface {
	// Save inserts the user or replaces the row with the same id, and returns
	// the persisted user.
	Save(ctx context.Context, u *entity.User) (*entity.User, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	FindByEmail(ctx context.Context, email valueobject.Email) (*entity.User, error)

	// DeleteUser removes the row. Removing a missing row is not an error.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// ExistsByEmail must agree with FindByEmail at the moment of the call.
	ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error)
}
