package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

const postColumns = `p.id, p.author_id, p.text, p.media, p.reactions, p.comment_count,
	p.created_at, p.updated_at, u.username, u.is_private`

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, author_id, text, media, reactions, comment_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		post.ID, post.AuthorID, post.Text, post.Media, post.Reactions, post.CreatedAt, post.UpdatedAt,
	)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1`
	p, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID, page repository.Page) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryPosts(ctx, query, authorID, page.Limit, page.Offset())
}

func (r *PostRepo) Search(ctx context.Context, query string, page repository.Page) ([]domain.Post, error) {
	q := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.text ILIKE '%' || $1::text || '%'
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryPosts(ctx, q, escapeLike(query), page.Limit, page.Offset())
}

func (r *PostRepo) UpdateReactions(ctx context.Context, post *domain.Post) error {
	_, err := r.pool.Exec(ctx, `UPDATE posts SET reactions = $1 WHERE id = $2`, post.Reactions, post.ID)
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return err
}

func (r *PostRepo) AddBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookmarks (user_id, post_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, userID, postID)
	return err
}

func (r *PostRepo) RemoveBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2`, userID, postID)
	return err
}

func (r *PostRepo) ListBookmarks(ctx context.Context, userID uuid.UUID, page repository.Page) ([]domain.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM bookmarks b
		JOIN posts p ON p.id = b.post_id
		JOIN users u ON u.id = p.author_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryPosts(ctx, query, userID, page.Limit, page.Offset())
}

func (r *PostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(
		&p.ID, &p.AuthorID, &p.Text, &p.Media, &p.Reactions, &p.CommentCount,
		&p.CreatedAt, &p.UpdatedAt, &p.AuthorUsername, &p.AuthorIsPrivate,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
