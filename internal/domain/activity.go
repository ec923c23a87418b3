package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityPost    = "post"
	ActivityComment = "comment"
	ActivityFollow  = "follow"
)

// Activity points at a target whose table depends on Type.
type Activity struct {
	ID        uuid.UUID `json:"id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Type      string    `json:"type"`
	TargetID  uuid.UUID `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is an activity with its target resolved. Exactly one of Post, Comment, User is set,
// selected by Type.
type FeedItem struct {
	Activity
	Actor   *UserSummary `json:"actor,omitempty"`
	Post    *Post        `json:"post,omitempty"`
	Comment *Comment     `json:"comment,omitempty"`
	User    *UserSummary `json:"user,omitempty"`
}
