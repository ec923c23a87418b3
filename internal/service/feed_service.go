package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type FeedService struct {
	activityRepo repository.ActivityRepository
	followRepo   repository.FollowRepository
	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	commentRepo  repository.CommentRepository
}

func NewFeedService(
	activityRepo repository.ActivityRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *FeedService {
	return &FeedService{
		activityRepo: activityRepo,
		followRepo:   followRepo,
		userRepo:     userRepo,
		postRepo:     postRepo,
		commentRepo:  commentRepo,
	}
}

// Record stores an activity. A failed write only loses the feed entry, so it is logged.
func (s *FeedService) Record(ctx context.Context, actorID uuid.UUID, activityType string, targetID uuid.UUID) {
	a := &domain.Activity{
		ID:        uuid.New(),
		ActorID:   actorID,
		Type:      activityType,
		TargetID:  targetID,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Create(ctx, a); err != nil {
		log.Error("recording activity", "actor_id", actorID, "type", activityType, "err", err)
	}
}

// Feed returns activities of the users the caller follows plus their own, newest first.
func (s *FeedService) Feed(ctx context.Context, userID uuid.UUID, page repository.Page) (*PageResponse[domain.FeedItem], error) {
	actors, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	actors = append(actors, userID)

	activities, err := s.activityRepo.ListByActors(ctx, actors, page)
	if err != nil {
		return nil, err
	}

	// The caller sees private authors they follow, and themselves.
	visible := make(map[uuid.UUID]bool, len(actors))
	for _, id := range actors {
		visible[id] = true
	}

	users := map[uuid.UUID]*domain.UserSummary{}
	items := make([]domain.FeedItem, 0, len(activities))
	for _, a := range activities {
		item, err := s.resolve(ctx, a, users, visible)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		items = append(items, *item)
	}

	// HasMore follows the raw page so skipped entries don't end paging early.
	resp := newPageResponse(items, page)
	resp.HasMore = len(activities) == page.Limit
	return resp, nil
}

// resolve returns nil when the target no longer exists or the caller may not see it.
func (s *FeedService) resolve(ctx context.Context, a domain.Activity, users map[uuid.UUID]*domain.UserSummary, visible map[uuid.UUID]bool) (*domain.FeedItem, error) {
	actor, err := s.summary(ctx, a.ActorID, users)
	if err != nil || actor == nil {
		return nil, err
	}
	item := &domain.FeedItem{Activity: a, Actor: actor}

	switch a.Type {
	case domain.ActivityPost:
		post, err := s.postRepo.GetByID(ctx, a.TargetID)
		if err != nil || post == nil {
			return nil, err
		}
		item.Post = post
	case domain.ActivityComment:
		comment, err := s.commentRepo.GetByID(ctx, a.TargetID)
		if err != nil || comment == nil {
			return nil, err
		}
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil || post == nil {
			return nil, err
		}
		if post.AuthorIsPrivate && !visible[post.AuthorID] {
			return nil, nil
		}
		item.Comment = comment
	case domain.ActivityFollow:
		followed, err := s.summary(ctx, a.TargetID, users)
		if err != nil || followed == nil {
			return nil, err
		}
		item.User = followed
	default:
		log.Warn("unknown activity type", "id", a.ID, "type", a.Type)
		return nil, nil
	}
	return item, nil
}

func (s *FeedService) summary(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]*domain.UserSummary) (*domain.UserSummary, error) {
	if sum, ok := cache[id]; ok {
		return sum, nil
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var sum *domain.UserSummary
	if user != nil {
		us := user.Summary()
		sum = &us
	}
	cache[id] = sum
	return sum, nil
}
