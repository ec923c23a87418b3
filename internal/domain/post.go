package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID           uuid.UUID  `json:"id"`
	AuthorID     uuid.UUID  `json:"author_id"`
	Text         string     `json:"text"`
	Media        []string   `json:"media"`
	Reactions    []Reaction `json:"reactions"`
	CommentCount int        `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	// Joined fields
	AuthorUsername  string `json:"author_username,omitempty"`
	AuthorIsPrivate bool   `json:"-"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	// Joined fields
	AuthorUsername string `json:"author_username,omitempty"`
}
