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

const userColumns = `u.id, u.email, u.username, u.password_hash, u.role, u.first_name, u.last_name, u.bio,
	u.avatar_url, u.cover_url, u.is_private, u.settings, u.created_at, u.updated_at,
	(SELECT COUNT(*) FROM follows f WHERE f.followee_id = u.id) AS follower_count,
	(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, role, first_name, last_name, bio,
			is_private, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.Bio, user.IsPrivate, user.Settings,
		user.CreatedAt, user.UpdatedAt,
	)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users u WHERE lower(u.email) = lower($1)", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users u WHERE lower(u.username) = lower($1)", username)
}

func (r *UserRepo) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, bio = $3, avatar_url = $4, cover_url = $5,
			is_private = $6, settings = $7, role = $8, updated_at = $9
		WHERE id = $10`
	_, err := r.pool.Exec(ctx, query,
		user.FirstName, user.LastName, user.Bio, user.AvatarURL, user.CoverURL,
		user.IsPrivate, user.Settings, user.Role, user.UpdatedAt, user.ID,
	)
	return err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// Search matches username or name prefixes.
func (r *UserRepo) Search(ctx context.Context, query string, page repository.Page) ([]domain.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.username ILIKE $1 OR u.first_name ILIKE $1 OR u.last_name ILIKE $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3`
	return r.queryUsers(ctx, q, escapeLike(query)+"%", page.Limit, page.Offset())
}

// List is the admin listing; an empty query matches everyone.
func (r *UserRepo) List(ctx context.Context, query string, page repository.Page) ([]domain.User, error) {
	q := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE $1::text = '' OR u.username ILIKE '%' || $1::text || '%' OR u.email ILIKE '%' || $1::text || '%'
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryUsers(ctx, q, escapeLike(query), page.Limit, page.Offset())
}

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUserRow(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.Bio, &u.AvatarURL, &u.CoverURL,
		&u.IsPrivate, &u.Settings, &u.CreatedAt, &u.UpdatedAt,
		&u.FollowerCount, &u.FollowingCount,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
