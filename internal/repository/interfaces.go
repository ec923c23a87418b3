package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
)

// Page is an offset window. Offset paging can skip or repeat items when rows are inserted between
// requests.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, page Page) ([]domain.User, error)
	List(ctx context.Context, query string, page Page) ([]domain.User, error)
}

type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, page Page) ([]domain.UserSummary, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, page Page) ([]domain.UserSummary, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, page Page) ([]domain.Post, error)
	Search(ctx context.Context, query string, page Page) ([]domain.Post, error)
	UpdateReactions(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddBookmark(ctx context.Context, userID, postID uuid.UUID) error
	RemoveBookmark(ctx context.Context, userID, postID uuid.UUID) error
	ListBookmarks(ctx context.Context, userID uuid.UUID, page Page) ([]domain.Post, error)
}

type CommentRepository interface {
	// Create also bumps the post's comment count.
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID, page Page) ([]domain.Comment, error)
	Delete(ctx context.Context, comment *domain.Comment) error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Conversation, error)
	// FindDirect returns the non-rejected direct conversation between two users, if any.
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	ListByMember(ctx context.Context, userID uuid.UUID, states []string, page Page) ([]domain.Conversation, error)
	ListRequests(ctx context.Context, userID uuid.UUID, page Page) ([]domain.Conversation, error)
	// Update writes the whole conversation document.
	Update(ctx context.Context, conv *domain.Conversation) error
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	GetLatest(ctx context.Context, conversationID uuid.UUID) (*domain.Message, error)
	// ListByConversation returns one page, chronological.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, page Page) ([]domain.Message, error)
	// Update writes the whole message document.
	Update(ctx context.Context, msg *domain.Message) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByActors(ctx context.Context, actorIDs []uuid.UUID, page Page) ([]domain.Activity, error)
}

type ResetTokenRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	GetByHash(ctx context.Context, hash string) (*domain.PasswordResetToken, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// OTPStore keeps pending registrations until verified or expired.
type OTPStore interface {
	Save(ctx context.Context, reg *domain.PendingRegistration, ttl time.Duration) error
	Get(ctx context.Context, email string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error
}
