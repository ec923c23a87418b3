package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// NotificationToggles switches a delivery channel per notification category.
type NotificationToggles struct {
	Like    bool `json:"like"`
	Comment bool `json:"comment"`
	Follow  bool `json:"follow"`
	Message bool `json:"message"`
}

// Allows reports whether the given notification type is switched on.
func (t NotificationToggles) Allows(notificationType string) bool {
	switch notificationType {
	case NotificationLike:
		return t.Like
	case NotificationComment:
		return t.Comment
	case NotificationFollow:
		return t.Follow
	case NotificationMessage:
		return t.Message
	}
	return false
}

type UserSettings struct {
	Email NotificationToggles `json:"email"`
	Push  NotificationToggles `json:"push"`
}

// DefaultSettings enables in-app notifications for everything and email only for follows and messages.
func DefaultSettings() UserSettings {
	return UserSettings{
		Email: NotificationToggles{Follow: true, Message: true},
		Push:  NotificationToggles{Like: true, Comment: true, Follow: true, Message: true},
	}
}

type User struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Bio          string       `json:"bio"`
	AvatarURL    *string      `json:"avatar_url,omitempty"`
	CoverURL     *string      `json:"cover_url,omitempty"`
	IsPrivate    bool         `json:"is_private"`
	Settings     UserSettings `json:"settings"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	// Joined fields
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary is the public card shown for other users.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		IsPrivate: u.IsPrivate,
	}
}

type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsPrivate bool      `json:"is_private"`
}

// Profile is what GET /users/{id} returns. Private profiles hide everything but the summary
// unless the viewer is allowed.
type Profile struct {
	UserSummary
	Bio            string  `json:"bio,omitempty"`
	CoverURL       *string `json:"cover_url,omitempty"`
	FollowerCount  int     `json:"follower_count"`
	FollowingCount int     `json:"following_count"`
	IsFollowing    bool    `json:"is_following"`
	Restricted     bool    `json:"restricted"`
}

type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PendingRegistration is an OTP-gated signup waiting for its code.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"`
	Code         string    `json:"code"`
	Attempts     int       `json:"attempts"`
	Resends      int       `json:"resends"`
	LastSentAt   time.Time `json:"last_sent_at"`
}
