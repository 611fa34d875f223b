// Package memory holds a process-local UserRepository, used for local runs
// (STORAGE_DRIVER=memory) and as the store behind service and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

type row struct {
	id          uuid.UUID
	email       valueobject.Email
	firstName   string
	lastName    string
	phoneNumber *string
	status      entity.UserStatus
	createdAt   time.Time
	updatedAt   time.Time
}

// UserRepository keeps rows keyed by id with a unique email index. Stored rows
// are copies, so callers never share a User with the store.
type UserRepository struct {
	mu      sync.RWMutex
	rows    map[uuid.UUID]row
	byEmail map[valueobject.Email]uuid.UUID
	clock   entity.Clock
}

func NewUserRepository(clock entity.Clock) *UserRepository {
	return &UserRepository{
		rows:    make(map[uuid.UUID]row),
		byEmail: make(map[valueobject.Email]uuid.UUID),
		clock:   clock,
	}
}

func (r *UserRepository) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[u.Email()]; ok && owner != u.ID() {
		return nil, &errs.UserAlreadyExistsError{Email: u.Email().Address()}
	}
	if prev, ok := r.rows[u.ID()]; ok && prev.email != u.Email() {
		delete(r.byEmail, prev.email)
	}

	rw := row{
		id:          u.ID(),
		email:       u.Email(),
		firstName:   u.FirstName(),
		lastName:    u.LastName(),
		phoneNumber: u.PhoneNumberPtr(),
		status:      u.Status(),
		createdAt:   u.CreatedAt(),
		updatedAt:   u.UpdatedAt(),
	}
	r.rows[rw.id] = rw
	r.byEmail[rw.email] = rw.id
	return r.toDomain(rw)
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rw, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return r.toDomain(rw)
}

func (r *UserRepository) FindByEmail(_ context.Context, email valueobject.Email) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return r.toDomain(r.rows[id])
}

func (r *UserRepository) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rw, ok := r.rows[id]; ok {
		delete(r.byEmail, rw.email)
		delete(r.rows, id)
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(_ context.Context, email valueobject.Email) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

// Len reports the number of stored rows.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}

func (r *UserRepository) toDomain(rw row) (*entity.User, error) {
	email := rw.email
	return entity.NewUser(entity.UserParams{
		ID:          rw.id,
		Email:       &email,
		FirstName:   rw.firstName,
		LastName:    rw.lastName,
		PhoneNumber: rw.phoneNumber,
		Status:      rw.status,
		CreatedAt:   rw.createdAt,
		UpdatedAt:   rw.updatedAt,
	}, entity.WithClock(r.clock))
}

var _ repository.UserRepository = (*UserRepository)(nil)
