package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

const conversationColumns = `id, is_group, name, members, admins, state, requested_by, pending_for,
	created_by, invite_code, pinned_message_id, last_message_at, muted, nicknames, typing,
	created_at, updated_at`

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	conv.EnsureMaps()
	query := `
		INSERT INTO conversations (` + conversationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.pool.Exec(ctx, query,
		conv.ID, conv.IsGroup, conv.Name, conv.Members, conv.Admins, conv.State,
		conv.RequestedBy, conv.PendingFor, conv.CreatedBy, conv.InviteCode, conv.PinnedMessageID,
		conv.LastMessageAt, conv.Muted, conv.Nicknames, conv.Typing, conv.CreatedAt, conv.UpdatedAt,
	)
	return mapErr(err)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return r.getOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
}

func (r *ConversationRepo) GetByInviteCode(ctx context.Context, code string) (*domain.Conversation, error) {
	return r.getOne(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE is_group AND invite_code = $1`, code)
}

func (r *ConversationRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE NOT is_group
			AND state <> 'rejected'
			AND members @> ARRAY[$1::uuid, $2::uuid]
			AND cardinality(members) = 2
		ORDER BY created_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, userA, userB)
}

func (r *ConversationRepo) ListByMember(ctx context.Context, userID uuid.UUID, states []string, page repository.Page) ([]domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE $1::uuid = ANY(members) AND state = ANY($2::text[])
		ORDER BY last_message_at DESC NULLS LAST, updated_at DESC
		LIMIT $3 OFFSET $4`
	return r.queryMany(ctx, query, userID, states, page.Limit, page.Offset())
}

func (r *ConversationRepo) ListRequests(ctx context.Context, userID uuid.UUID, page repository.Page) ([]domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE pending_for = $1 AND $1 = ANY(members) AND state = 'pending'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryMany(ctx, query, userID, page.Limit, page.Offset())
}

func (r *ConversationRepo) Update(ctx context.Context, conv *domain.Conversation) error {
	conv.EnsureMaps()
	query := `
		UPDATE conversations
		SET name = $1, members = $2, admins = $3, state = $4, requested_by = $5, pending_for = $6,
			created_by = $7, invite_code = $8, pinned_message_id = $9, last_message_at = $10,
			muted = $11, nicknames = $12, typing = $13, updated_at = $14
		WHERE id = $15`
	_, err := r.pool.Exec(ctx, query,
		conv.Name, conv.Members, conv.Admins, conv.State, conv.RequestedBy, conv.PendingFor,
		conv.CreatedBy, conv.InviteCode, conv.PinnedMessageID, conv.LastMessageAt,
		conv.Muted, conv.Nicknames, conv.Typing, conv.UpdatedAt, conv.ID,
	)
	return mapErr(err)
}

func (r *ConversationRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE conversations SET last_message_at = $1, updated_at = $1 WHERE id = $2`, at, id)
	return err
}

// Delete cascades to the conversation's messages.
func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return err
}

func (r *ConversationRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	conv, err := scanConversation(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return conv, err
}

func (r *ConversationRepo) queryMany(ctx context.Context, query string, args ...any) ([]domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID, &c.IsGroup, &c.Name, &c.Members, &c.Admins, &c.State,
		&c.RequestedBy, &c.PendingFor, &c.CreatedBy, &c.InviteCode, &c.PinnedMessageID,
		&c.LastMessageAt, &c.Muted, &c.Nicknames, &c.Typing, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.EnsureMaps()
	return &c, nil
}
