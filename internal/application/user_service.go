package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/errs"
	repo "github.com/oksasatya/ecommerce-user-service/internal/domain/repository"
	"github.com/oksasatya/ecommerce-user-service/internal/domain/valueobject"
)

// Service runs the user use cases on top of the repository port. It is the
// layer that raises UserAlreadyExists and UserNotFound.
type Service struct {
	Repo      repo.UserRepository
	Events    EventPublisher
	Clock     entity.Clock
	Logger    *logrus.Logger
	NewUserID func() uuid.UUID
}

func NewService(repo repo.UserRepository, events EventPublisher, clock entity.Clock, logger *logrus.Logger) *Service {
	if events == nil {
		events = NoopPublisher{}
	}
	if clock == nil {
		clock = entity.SystemClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		Repo:      repo,
		Events:    events,
		Clock:     clock,
		Logger:    logger,
		NewUserID: uuid.New,
	}
}

type RegisterUserInput struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber *string
}

type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber *string
}

// RegisterUser creates an ACTIVE user. The email must not be taken.
func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (*entity.User, error) {
	email, err := valueobject.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	taken, err := s.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &errs.UserAlreadyExistsError{Email: email.Address()}
	}

	now := s.Clock.Now()
	u, err := entity.NewUser(entity.UserParams{
		ID:          s.NewUserID(),
		Email:       &email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		PhoneNumber: in.PhoneNumber,
		Status:      entity.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, entity.WithClock(s.Clock))
	if err != nil {
		return nil, err
	}

	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": saved.ID(), "email": saved.Email().Address()}).Info("user registered")
	s.publish(ctx, newUserEvent(EventUserRegistered, saved))
	return saved, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &errs.UserNotFoundError{ID: id}
	}
	return u, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, rawEmail string) (*entity.User, error) {
	email, err := valueobject.NewEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &errs.UserNotFoundError{Email: email.Address()}
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*entity.User, error) {
	return s.transition(ctx, id, EventUserProfileUpdated, func(u *entity.User) error {
		return u.UpdateProfile(in.FirstName, in.LastName, in.PhoneNumber)
	})
}

func (s *Service) ActivateUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.transition(ctx, id, EventUserActivated, (*entity.User).Activate)
}

func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.transition(ctx, id, EventUserDeactivated, (*entity.User).Deactivate)
}

// DeleteUser soft-deletes: the row stays with status DELETED.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.transition(ctx, id, EventUserDeleted, func(u *entity.User) error {
		u.Delete()
		return nil
	})
}

// PurgeUser removes the row. Purging a missing user succeeds.
func (s *Service) PurgeUser(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.Logger.WithField("user_id", id).Info("user purged")
	s.publish(ctx, UserEvent{Type: EventUserPurged, UserID: id, OccurredAt: s.Clock.Now()})
	return nil
}

// transition loads a fresh instance, applies apply and persists the result.
// Nothing is saved when apply fails.
func (s *Service) transition(ctx context.Context, id uuid.UUID, evt EventType, apply func(*entity.User) error) (*entity.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(u); err != nil {
		return nil, err
	}
	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": id, "status": saved.Status(), "event": evt}).Info("user updated")
	s.publish(ctx, newUserEvent(evt, saved))
	return saved, nil
}

func (s *Service) publish(ctx context.Context, evt UserEvent) {
	if err := s.Events.Publish(ctx, evt); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": evt.UserID, "event": evt.Type}).Error("publish user event failed")
	}
}
