package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (id, actor_id, type, target_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.ActorID, a.Type, a.TargetID, a.CreatedAt,
	)
	return err
}

func (r *ActivityRepo) ListByActors(ctx context.Context, actorIDs []uuid.UUID, page repository.Page) ([]domain.Activity, error) {
	query := `
		SELECT id, actor_id, type, target_id, created_at
		FROM activities
		WHERE actor_id = ANY($1::uuid[])
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, actorIDs, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Type, &a.TargetID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
