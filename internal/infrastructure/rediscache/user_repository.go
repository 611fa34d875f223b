// Package rediscache decorates a UserRepository with a redis read-through cache.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
	"github.com/oksasatya/ecommerce-user-service/pkg/helpers"
)

const DefaultTTL = 10 * time.Minute

// cachedUser is the JSON snapshot stored under user:id:<uuid>.
type cachedUser struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRepository serves FindByID and FindByEmail from redis and keeps the
// cache in step on Save and DeleteUser. ExistsByEmail always asks the inner
// store. Redis failures never fail an operation; they are logged and the inner
// store answers instead.
type UserRepository struct {
	inner  repository.UserRepository
	rdb    redis.Cmdable
	ttl    time.Duration
	clock  entity.Clock
	logger *logrus.Logger
}

func NewUserRepository(inner repository.UserRepository, rdb redis.Cmdable, ttl time.Duration, clock entity.Clock, logger *logrus.Logger) *UserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserRepository{inner: inner, rdb: rdb, ttl: ttl, clock: clock, logger: logger}
}

func idKey(id uuid.UUID) string { return "user:id:" + id.String() }

func emailKey(e valueobject.Email) string { return "user:email:" + e.Address() }

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	saved, err := r.inner.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	r.store(ctx, saved)
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var snap cachedUser
	hit, err := helpers.RedisGetJSON(ctx, r.rdb, idKey(id), &snap)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
	}
	if hit {
		u, err := r.toDomain(snap)
		if err == nil {
			return u, nil
		}
		r.logger.WithError(err).WithField("user_id", id).Warn("discarding invalid cached user")
		r.evict(ctx, idKey(id))
	}

	u, err := r.inner.FindByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	r.store(ctx, u)
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email valueobject.Email) (*entity.User, error) {
	raw, err := r.rdb.Get(ctx, emailKey(email)).Result()
	switch {
	case err == nil:
		if id, perr := uuid.Parse(raw); perr == nil {
			u, ferr := r.FindByID(ctx, id)
			if ferr != nil {
				return nil, ferr
			}
			if u != nil && u.Email() == email {
				return u, nil
			}
		}
		r.evict(ctx, emailKey(email))
	case !errors.Is(err, redis.Nil):
		r.logger.WithError(err).WithField("email", email.Address()).Warn("user cache read failed")
	}

	u, err := r.inner.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return u, err
	}
	r.store(ctx, u)
	return u, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	keys := []string{idKey(id)}
	var snap cachedUser
	if hit, _ := helpers.RedisGetJSON(ctx, r.rdb, idKey(id), &snap); hit {
		if e, err := valueobject.NewEmail(snap.Email); err == nil {
			keys = append(keys, emailKey(e))
		}
	} else if u, err := r.inner.FindByID(ctx, id); err == nil && u != nil {
		keys = append(keys, emailKey(u.Email()))
	}

	if err := r.inner.DeleteUser(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, keys...)
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	return r.inner.ExistsByEmail(ctx, email)
}

func (r *UserRepository) store(ctx context.Context, u *entity.User) {
	snap := cachedUser{
		ID:          u.ID(),
		Email:       u.Email().Address(),
		FirstName:   u.FirstName(),
		LastName:    u.LastName(),
		PhoneNumber: u.PhoneNumberPtr(),
		Status:      u.Status().String(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
	}
	if err := helpers.RedisSetJSON(ctx, r.rdb, idKey(u.ID()), snap, r.ttl); err != nil {
		r.logger.WithError(err).WithField("user_id", u.ID()).Warn("user cache write failed")
		return
	}
	if err := r.rdb.Set(ctx, emailKey(u.Email()), u.ID().String(), r.ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("user_id", u.ID()).Warn("user cache write failed")
	}
}

func (r *UserRepository) evict(ctx context.Context, keys ...string) {
	if err := helpers.RedisDel(ctx, r.rdb, keys...); err != nil {
		r.logger.WithError(err).WithField("keys", keys).Warn("user cache evict failed")
	}
}

// toDomain runs the snapshot through the entity constructor so cached data
// obeys the same invariants as stored rows.
func (r *UserRepository) toDomain(s cachedUser) (*entity.User, error) {
	email, err := valueobject.NewEmail(s.Email)
	if err != nil {
		return nil, err
	}
	status, err := entity.ParseUserStatus(s.Status)
	if err != nil {
		return nil, err
	}
	return entity.NewUser(entity.UserParams{
		ID:          s.ID,
		Email:       &email,
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		PhoneNumber: s.PhoneNumber,
		Status:      status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, entity.WithClock(r.clock))
}

var _ repository.UserRepository = (*UserRepository)(nil)
