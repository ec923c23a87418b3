package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMessage = "message"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ActorID   uuid.UUID  `json:"actor_id"`
	Type      string     `json:"type"`
	TargetID  *uuid.UUID `json:"target_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
	// Joined fields
	ActorUsername string `json:"actor_username,omitempty"`
}
