package event

import (
	"time"

	"gopherauth/internal/schema"
)

const (
	TypeUserRegistered = "user.registered"
	TypeUserDeleted    = "user.deleted"
)

// UserEvent is the broker payload for user lifecycle changes. It carries the
// public projection only.
type UserEvent struct {
	Type       string              `json:"type"`
	OccurredAt time.Time           `json:"occurred_at"`
	User       schema.UserResponse `json:"user"`
}

func NewUserEvent(eventType string, user schema.UserResponse) UserEvent {
	return UserEvent{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		User:       user,
	}
}
