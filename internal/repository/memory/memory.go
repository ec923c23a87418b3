// Package memory implements the repository interfaces over in-process maps. Reads return copies,
// so callers only change stored rows through the repository methods.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

// DB holds every collection. Fields are exported for test setup and assertions; hold no references
// across concurrent repository calls.
type DB struct {
	mu sync.Mutex

	Users         map[uuid.UUID]domain.User
	Follows       map[[2]uuid.UUID]bool
	Posts         []domain.Post
	Comments      []domain.Comment
	Bookmarks     map[[2]uuid.UUID]bool
	Conversations map[uuid.UUID]domain.Conversation
	Messages      []domain.Message
	Notifications []domain.Notification
	Activities    []domain.Activity
	ResetTokens   map[string]domain.PasswordResetToken
	Pending       map[string]domain.PendingRegistration
	PendingTTL    map[string]time.Duration
}

func New() *DB {
	return &DB{
		Users:         map[uuid.UUID]domain.User{},
		Follows:       map[[2]uuid.UUID]bool{},
		Bookmarks:     map[[2]uuid.UUID]bool{},
		Conversations: map[uuid.UUID]domain.Conversation{},
		ResetTokens:   map[string]domain.PasswordResetToken{},
		Pending:       map[string]domain.PendingRegistration{},
		PendingTTL:    map[string]time.Duration{},
	}
}

func pageOf[T any](items []T, p repository.Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return slices.Clone(items[start:end])
}

// newestFirst returns a reversed copy of an insertion-ordered slice.
func newestFirst[T any](items []T) []T {
	out := slices.Clone(items)
	slices.Reverse(out)
	return out
}

// --- users ---

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.Users {
		if u.Email == user.Email || strings.EqualFold(u.Username, user.Username) {
			return repository.ErrDuplicate
		}
	}
	r.db.Users[user.ID] = *user
	return nil
}

func (r *UserRepo) withCounts(u domain.User) *domain.User {
	u.FollowerCount, u.FollowingCount = 0, 0
	for edge := range r.db.Follows {
		if edge[1] == u.ID {
			u.FollowerCount++
		}
		if edge[0] == u.ID {
			u.FollowingCount++
		}
	}
	return &u
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.Users[id]
	if !ok {
		return nil, nil
	}
	return r.withCounts(u), nil
}

func (r *UserRepo) find(match func(domain.User) bool) *domain.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.Users {
		if match(u) {
			return r.withCounts(u)
		}
	}
	return nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

// Update leaves the password hash alone, like the SQL implementation.
func (r *UserRepo) Update(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.Users[user.ID]
	if !ok {
		return nil
	}
	updated := *user
	updated.PasswordHash = stored.PasswordHash
	r.db.Users[user.ID] = updated
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.Users[id]; ok {
		u.PasswordHash = hash
		r.db.Users[id] = u
	}
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.Users, id)
	maps.DeleteFunc(r.db.Follows, func(edge [2]uuid.UUID, _ bool) bool {
		return edge[0] == id || edge[1] == id
	})
	return nil
}

func (r *UserRepo) sorted(match func(domain.User) bool) []domain.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.User
	for _, u := range r.db.Users {
		if match(u) {
			out = append(out, *r.withCounts(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r *UserRepo) Search(_ context.Context, query string, page repository.Page) ([]domain.User, error) {
	q := strings.ToLower(query)
	return pageOf(r.sorted(func(u domain.User) bool {
		return strings.HasPrefix(strings.ToLower(u.Username), q)
	}), page), nil
}

func (r *UserRepo) List(_ context.Context, query string, page repository.Page) ([]domain.User, error) {
	q := strings.ToLower(query)
	return pageOf(r.sorted(func(u domain.User) bool {
		return strings.Contains(strings.ToLower(u.Username), q) || strings.Contains(strings.ToLower(u.Email), q)
	}), page), nil
}

// --- follows ---

type FollowRepo struct{ db *DB }

func NewFollowRepo(db *DB) *FollowRepo {
	return &FollowRepo{db: db}
}

func (r *FollowRepo) Follow(_ context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]uuid.UUID{followerID, followeeID}
	if r.db.Follows[key] {
		return false, nil
	}
	r.db.Follows[key] = true
	return true, nil
}

func (r *FollowRepo) Unfollow(_ context.Context, followerID, followeeID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.Follows, [2]uuid.UUID{followerID, followeeID})
	return nil
}

func (r *FollowRepo) IsFollowing(_ context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.Follows[[2]uuid.UUID{followerID, followeeID}], nil
}

func (r *FollowRepo) summaries(pick func(edge [2]uuid.UUID) (uuid.UUID, bool)) []domain.UserSummary {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.UserSummary
	for edge := range r.db.Follows {
		if id, ok := pick(edge); ok {
			u := r.db.Users[id]
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r *FollowRepo) ListFollowers(_ context.Context, userID uuid.UUID, page repository.Page) ([]domain.UserSummary, error) {
	return pageOf(r.summaries(func(edge [2]uuid.UUID) (uuid.UUID, bool) {
		return edge[0], edge[1] == userID
	}), page), nil
}

func (r *FollowRepo) ListFollowing(_ context.Context, userID uuid.UUID, page repository.Page) ([]domain.UserSummary, error) {
	return pageOf(r.summaries(func(edge [2]uuid.UUID) (uuid.UUID, bool) {
		return edge[1], edge[0] == userID
	}), page), nil
}

func (r *FollowRepo) FollowingIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var ids []uuid.UUID
	for edge := range r.db.Follows {
		if edge[0] == userID {
			ids = append(ids, edge[1])
		}
	}
	return ids, nil
}

// --- posts & comments ---

type PostRepo struct{ db *DB }

func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

func clonePost(p domain.Post) domain.Post {
	p.Media = slices.Clone(p.Media)
	p.Reactions = slices.Clone(p.Reactions)
	return p
}

func (r *PostRepo) joined(p domain.Post) domain.Post {
	p = clonePost(p)
	author := r.db.Users[p.AuthorID]
	p.AuthorUsername = author.Username
	p.AuthorIsPrivate = author.IsPrivate
	p.CommentCount = 0
	for _, c := range r.db.Comments {
		if c.PostID == p.ID {
			p.CommentCount++
		}
	}
	return p
}

func (r *PostRepo) Create(_ context.Context, post *domain.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Posts = append(r.db.Posts, clonePost(*post))
	return nil
}

func (r *PostRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.Posts {
		if p.ID == id {
			j := r.joined(p)
			return &j, nil
		}
	}
	return nil, nil
}

func (r *PostRepo) filter(match func(domain.Post) bool) []domain.Post {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Post
	for _, p := range newestFirst(r.db.Posts) {
		if match(p) {
			out = append(out, r.joined(p))
		}
	}
	return out
}

func (r *PostRepo) ListByAuthor(_ context.Context, authorID uuid.UUID, page repository.Page) ([]domain.Post, error) {
	return pageOf(r.filter(func(p domain.Post) bool { return p.AuthorID == authorID }), page), nil
}

func (r *PostRepo) Search(_ context.Context, query string, page repository.Page) ([]domain.Post, error) {
	q := strings.ToLower(query)
	return pageOf(r.filter(func(p domain.Post) bool {
		return strings.Contains(strings.ToLower(p.Text), q)
	}), page), nil
}

func (r *PostRepo) UpdateReactions(_ context.Context, post *domain.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.Posts {
		if r.db.Posts[i].ID == post.ID {
			r.db.Posts[i].Reactions = slices.Clone(post.Reactions)
		}
	}
	return nil
}

func (r *PostRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Posts = slices.DeleteFunc(r.db.Posts, func(p domain.Post) bool { return p.ID == id })
	r.db.Comments = slices.DeleteFunc(r.db.Comments, func(c domain.Comment) bool { return c.PostID == id })
	maps.DeleteFunc(r.db.Bookmarks, func(k [2]uuid.UUID, _ bool) bool { return k[1] == id })
	return nil
}

func (r *PostRepo) AddBookmark(_ context.Context, userID, postID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Bookmarks[[2]uuid.UUID{userID, postID}] = true
	return nil
}

func (r *PostRepo) RemoveBookmark(_ context.Context, userID, postID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.Bookmarks, [2]uuid.UUID{userID, postID})
	return nil
}

func (r *PostRepo) ListBookmarks(_ context.Context, userID uuid.UUID, page repository.Page) ([]domain.Post, error) {
	return pageOf(r.filter(func(p domain.Post) bool {
		return r.db.Bookmarks[[2]uuid.UUID{userID, p.ID}]
	}), page), nil
}

type CommentRepo struct{ db *DB }

func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Comments = append(r.db.Comments, *c)
	return nil
}

func (r *CommentRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.Comments {
		if c.ID == id {
			c.AuthorUsername = r.db.Users[c.AuthorID].Username
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CommentRepo) ListByPost(_ context.Context, postID uuid.UUID, page repository.Page) ([]domain.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Comment
	for _, c := range r.db.Comments {
		if c.PostID == postID {
			c.AuthorUsername = r.db.Users[c.AuthorID].Username
			out = append(out, c)
		}
	}
	return pageOf(out, page), nil
}

func (r *CommentRepo) Delete(_ context.Context, c *domain.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Comments = slices.DeleteFunc(r.db.Comments, func(x domain.Comment) bool { return x.ID == c.ID })
	return nil
}

// --- notifications & activities ---

type NotificationRepo struct{ db *DB }

func NewNotificationRepo(db *DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Notifications = append(r.db.Notifications, *n)
	return nil
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, page repository.Page) ([]domain.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Notification
	for _, n := range newestFirst(r.db.Notifications) {
		if n.UserID == userID {
			n.ActorUsername = r.db.Users[n.ActorID].Username
			out = append(out, n)
		}
	}
	return pageOf(out, page), nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, n := range r.db.Notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.Notifications {
		if r.db.Notifications[i].ID == id && r.db.Notifications[i].UserID == userID {
			r.db.Notifications[i].Read = true
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.Notifications {
		if r.db.Notifications[i].UserID == userID {
			r.db.Notifications[i].Read = true
		}
	}
	return nil
}

func (r *NotificationRepo) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	before := len(r.db.Notifications)
	r.db.Notifications = slices.DeleteFunc(r.db.Notifications, func(n domain.Notification) bool {
		return n.ID == id && n.UserID == userID
	})
	return len(r.db.Notifications) < before, nil
}

type ActivityRepo struct{ db *DB }

func NewActivityRepo(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(_ context.Context, a *domain.Activity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Activities = append(r.db.Activities, *a)
	return nil
}

func (r *ActivityRepo) ListByActors(_ context.Context, actorIDs []uuid.UUID, page repository.Page) ([]domain.Activity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Activity
	for _, a := range newestFirst(r.db.Activities) {
		if slices.Contains(actorIDs, a.ActorID) {
			out = append(out, a)
		}
	}
	return pageOf(out, page), nil
}

// --- auth stores ---

type ResetTokenRepo struct{ db *DB }

func NewResetTokenRepo(db *DB) *ResetTokenRepo {
	return &ResetTokenRepo{db: db}
}

func (r *ResetTokenRepo) Create(_ context.Context, t *domain.PasswordResetToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.ResetTokens[t.TokenHash] = *t
	return nil
}

func (r *ResetTokenRepo) GetByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.ResetTokens[hash]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *ResetTokenRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	maps.DeleteFunc(r.db.ResetTokens, func(_ string, t domain.PasswordResetToken) bool {
		return t.UserID == userID
	})
	return nil
}

// OTPStore ignores expiry; PendingTTL records the last non-zero ttl per email.
type OTPStore struct{ db *DB }

func NewOTPStore(db *DB) *OTPStore {
	return &OTPStore{db: db}
}

func (s *OTPStore) Save(_ context.Context, reg *domain.PendingRegistration, ttl time.Duration) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.Pending[reg.Email] = *reg
	if ttl > 0 {
		s.db.PendingTTL[reg.Email] = ttl
	}
	return nil
}

func (s *OTPStore) Get(_ context.Context, email string) (*domain.PendingRegistration, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	reg, ok := s.db.Pending[email]
	if !ok {
		return nil, nil
	}
	return &reg, nil
}

func (s *OTPStore) Delete(_ context.Context, email string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.Pending, email)
	delete(s.db.PendingTTL, email)
	return nil
}
