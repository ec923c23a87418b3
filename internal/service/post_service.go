package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyPost       = errors.New("post needs text or media")
	ErrNotPostAuthor   = errors.New("only the author can perform this action")
)

type PostService struct {
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	userRepo      repository.UserRepository
	followRepo    repository.FollowRepository
	notifications *NotificationService
	feed          *FeedService
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	notifications *NotificationService,
	feed *FeedService,
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		commentRepo:   commentRepo,
		userRepo:      userRepo,
		followRepo:    followRepo,
		notifications: notifications,
		feed:          feed,
	}
}

type CreatePostInput struct {
	Text  string   `json:"text" validate:"max=5000"`
	Media []string `json:"media" validate:"max=10,dive,required"`
}

type ReactInput struct {
	Type string `json:"type" validate:"required,max=32"`
}

type CreateCommentInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*domain.Post, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Media) == 0 {
		return nil, ErrEmptyPost
	}

	media := input.Media
	if media == nil {
		media = []string{}
	}

	now := time.Now()
	post := &domain.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Text:      text,
		Media:     media,
		Reactions: []domain.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.feed.Record(ctx, authorID, domain.ActivityPost, post.ID)

	full, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if full == nil {
		return post, nil
	}
	return full, nil
}

func (s *PostService) Get(ctx context.Context, viewerID, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.mustGet(ctx, postID)
	if err != nil {
		return nil, err
	}
	visible, err := s.canView(ctx, viewerID, post, nil)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrProfileRestricted
	}
	return post, nil
}

func (s *PostService) ListByAuthor(ctx context.Context, viewerID, authorID uuid.UUID, page repository.Page) (*PageResponse[domain.Post], error) {
	author, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}
	if author.IsPrivate && viewerID != authorID {
		following, err := s.followRepo.IsFollowing(ctx, viewerID, authorID)
		if err != nil {
			return nil, err
		}
		if !following {
			return nil, ErrProfileRestricted
		}
	}

	posts, err := s.postRepo.ListByAuthor(ctx, authorID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(posts, page), nil
}

// Search drops posts by private authors unless the viewer is the author or follows them.
func (s *PostService) Search(ctx context.Context, viewerID uuid.UUID, query string, page repository.Page) (*PageResponse[domain.Post], error) {
	posts, err := s.postRepo.Search(ctx, strings.TrimSpace(query), page)
	if err != nil {
		return nil, err
	}

	follows := map[uuid.UUID]bool{}
	filtered := make([]domain.Post, 0, len(posts))
	for i := range posts {
		ok, err := s.canView(ctx, viewerID, &posts[i], follows)
		if err != nil {
			return nil, err
		}
		if ok {
			filtered = append(filtered, posts[i])
		}
	}

	resp := newPageResponse(filtered, page)
	resp.HasMore = len(posts) == page.Limit
	return resp, nil
}

func (s *PostService) Delete(ctx context.Context, userID uuid.UUID, isAdmin bool, postID uuid.UUID) error {
	post, err := s.mustGet(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID && !isAdmin {
		return ErrNotPostAuthor
	}
	return s.postRepo.Delete(ctx, postID)
}

// React toggles the caller's reaction of the given type. Only adding a reaction notifies the author.
func (s *PostService) React(ctx context.Context, userID, postID uuid.UUID, input ReactInput) (*domain.Post, error) {
	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	before := len(post.Reactions)
	post.Reactions = domain.ToggleReaction(post.Reactions, userID, input.Type)
	if err := s.postRepo.UpdateReactions(ctx, post); err != nil {
		return nil, fmt.Errorf("updating reactions: %w", err)
	}

	if len(post.Reactions) > before {
		s.notifications.Notify(ctx, post.AuthorID, userID, domain.NotificationLike, &post.ID)
	}
	return post, nil
}

func (s *PostService) AddComment(ctx context.Context, userID, postID uuid.UUID, input CreateCommentInput) (*domain.Comment, error) {
	post, err := s.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		AuthorID:  userID,
		Text:      strings.TrimSpace(input.Text),
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.notifications.Notify(ctx, post.AuthorID, userID, domain.NotificationComment, &post.ID)
	s.feed.Record(ctx, userID, domain.ActivityComment, comment.ID)

	full, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil || full == nil {
		return comment, err
	}
	return full, nil
}

func (s *PostService) Comments(ctx context.Context, userID, postID uuid.UUID, page repository.Page) (*PageResponse[domain.Comment], error) {
	if _, err := s.Get(ctx, userID, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(comments, page), nil
}

// DeleteComment is allowed to the comment author, the post author and admins.
func (s *PostService) DeleteComment(ctx context.Context, userID uuid.UUID, isAdmin bool, commentID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}

	if comment.AuthorID != userID && !isAdmin {
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if post == nil || post.AuthorID != userID {
			return ErrNotPostAuthor
		}
	}

	return s.commentRepo.Delete(ctx, comment)
}

func (s *PostService) Bookmark(ctx context.Context, userID, postID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, postID); err != nil {
		return err
	}
	return s.postRepo.AddBookmark(ctx, userID, postID)
}

func (s *PostService) RemoveBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	return s.postRepo.RemoveBookmark(ctx, userID, postID)
}

func (s *PostService) Bookmarks(ctx context.Context, userID uuid.UUID, page repository.Page) (*PageResponse[domain.Post], error) {
	posts, err := s.postRepo.ListBookmarks(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(posts, page), nil
}

// canView caches follow lookups per author in follows when it is non-nil.
func (s *PostService) canView(ctx context.Context, viewerID uuid.UUID, post *domain.Post, follows map[uuid.UUID]bool) (bool, error) {
	if !post.AuthorIsPrivate || post.AuthorID == viewerID {
		return true, nil
	}
	if ok, cached := follows[post.AuthorID]; cached {
		return ok, nil
	}
	ok, err := s.followRepo.IsFollowing(ctx, viewerID, post.AuthorID)
	if err != nil {
		return false, err
	}
	if follows != nil {
		follows[post.AuthorID] = ok
	}
	return ok, nil
}

func (s *PostService) mustGet(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}
