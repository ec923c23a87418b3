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

const messageColumns = `m.id, m.conversation_id, m.sender_id, m.text, m.attachments, m.reply_to,
	m.reactions, m.seen_by, m.is_deleted, m.edited_at, m.created_at, COALESCE(u.username, '')`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, text, attachments, reply_to,
			reactions, seen_by, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Text, msg.Attachments, msg.ReplyTo,
		msg.Reactions, msg.SeenBy, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	return r.getOne(ctx, query, id)
}

func (r *MessageRepo) GetLatest(ctx context.Context, conversationID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at DESC
		LIMIT 1`
	return r.getOne(ctx, query, conversationID)
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, page repository.Page) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		LEFT JOIN users u ON m.sender_id = u.id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, conversationID, page.Limit, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}

	// Reverse to chronological order (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, rows.Err()
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `
		UPDATE messages
		SET text = $1, attachments = $2, reactions = $3, seen_by = $4, is_deleted = $5, edited_at = $6
		WHERE id = $7`
	_, err := r.pool.Exec(ctx, query,
		msg.Text, msg.Attachments, msg.Reactions, msg.SeenBy, msg.IsDeleted, msg.EditedAt, msg.ID,
	)
	return err
}

func (r *MessageRepo) getOne(ctx context.Context, query string, arg any) (*domain.Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &m.Attachments, &m.ReplyTo,
		&m.Reactions, &m.SeenBy, &m.IsDeleted, &m.EditedAt, &m.CreatedAt, &m.SenderUsername,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
