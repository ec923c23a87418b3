package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCannotFollowSelf  = errors.New("cannot follow yourself")
	ErrProfileRestricted = errors.New("this profile is private")
)

type UserService struct {
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	notifications *NotificationService
	feed          *FeedService
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	notifications *NotificationService,
	feed *FeedService,
) *UserService {
	return &UserService{
		userRepo:      userRepo,
		followRepo:    followRepo,
		notifications: notifications,
		feed:          feed,
	}
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
}

type UpdateSettingsInput struct {
	Email     *domain.NotificationToggles `json:"email"`
	Push      *domain.NotificationToggles `json:"push"`
	IsPrivate *bool                       `json:"is_private"`
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.mustGet(ctx, userID)
}

// Profile hides everything but the summary of a private user from viewers who don't follow them.
func (s *UserService) Profile(ctx context.Context, viewerID, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != userID {
		following, err = s.followRepo.IsFollowing(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
	}

	profile := &domain.Profile{
		UserSummary:    user.Summary(),
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
		IsFollowing:    following,
	}
	if user.IsPrivate && viewerID != userID && !following {
		profile.Restricted = true
		return profile, nil
	}

	profile.Bio = user.Bio
	profile.CoverURL = user.CoverURL
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Bio != nil {
		user.Bio = *input.Bio
	}

	return s.save(ctx, user)
}

func (s *UserService) UpdateSettings(ctx context.Context, userID uuid.UUID, input UpdateSettingsInput) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Settings.Email = *input.Email
	}
	if input.Push != nil {
		user.Settings.Push = *input.Push
	}
	if input.IsPrivate != nil {
		user.IsPrivate = *input.IsPrivate
	}

	return s.save(ctx, user)
}

// SetAvatar and SetCover store an already uploaded media URL.
func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, url string) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = &url
	return s.save(ctx, user)
}

func (s *UserService) SetCover(ctx context.Context, userID uuid.UUID, url string) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.CoverURL = &url
	return s.save(ctx, user)
}

// Follow is idempotent; only a new edge produces a notification and feed activity.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return ErrCannotFollowSelf
	}
	if _, err := s.mustGet(ctx, followeeID); err != nil {
		return err
	}

	created, err := s.followRepo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return fmt.Errorf("following user: %w", err)
	}
	if !created {
		return nil
	}

	s.notifications.Notify(ctx, followeeID, followerID, domain.NotificationFollow, &followerID)
	s.feed.Record(ctx, followerID, domain.ActivityFollow, followeeID)
	return nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return ErrCannotFollowSelf
	}
	return s.followRepo.Unfollow(ctx, followerID, followeeID)
}

func (s *UserService) Followers(ctx context.Context, viewerID, userID uuid.UUID, page repository.Page) (*PageResponse[domain.UserSummary], error) {
	if err := s.checkVisible(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	items, err := s.followRepo.ListFollowers(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(items, page), nil
}

func (s *UserService) Following(ctx context.Context, viewerID, userID uuid.UUID, page repository.Page) (*PageResponse[domain.UserSummary], error) {
	if err := s.checkVisible(ctx, viewerID, userID); err != nil {
		return nil, err
	}
	items, err := s.followRepo.ListFollowing(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(items, page), nil
}

func (s *UserService) Search(ctx context.Context, query string, page repository.Page) (*PageResponse[domain.UserSummary], error) {
	users, err := s.userRepo.Search(ctx, query, page)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return newPageResponse(summaries, page), nil
}

// MutualFollow reports whether both users follow each other.
func (s *UserService) MutualFollow(ctx context.Context, a, b uuid.UUID) (bool, error) {
	ab, err := s.followRepo.IsFollowing(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, b, a)
}

// checkVisible fails for private users the viewer doesn't follow.
func (s *UserService) checkVisible(ctx context.Context, viewerID, userID uuid.UUID) error {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsPrivate || viewerID == userID {
		return nil
	}
	following, err := s.followRepo.IsFollowing(ctx, viewerID, userID)
	if err != nil {
		return err
	}
	if !following {
		return ErrProfileRestricted
	}
	return nil
}

func (s *UserService) mustGet(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return user, nil
}
