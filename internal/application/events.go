package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/ecommerce-user-service/internal/domain/entity"
)

// EventType doubles as the routing key when events go to a broker.
type EventType string

const (
	EventUserRegistered     EventType = "user.registered"
	EventUserProfileUpdated EventType = "user.profile_updated"
	EventUserActivated      EventType = "user.activated"
	EventUserDeactivated    EventType = "user.deactivated"
	EventUserDeleted        EventType = "user.deleted"
	EventUserPurged         EventType = "user.purged"
)

// UserEvent is published after a lifecycle change has been persisted.
type UserEvent struct {
	Type       EventType         `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	Email      string            `json:"email,omitempty"`
	Status     entity.UserStatus `json:"status,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func newUserEvent(t EventType, u *entity.User) UserEvent {
	return UserEvent{
		Type:       t,
		UserID:     u.ID(),
		Email:      u.Email().Address(),
		Status:     u.Status(),
		OccurredAt: u.UpdatedAt(),
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, evt UserEvent) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, UserEvent) error { return nil }
