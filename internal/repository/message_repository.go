package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// MessageRepository defines persistence access for conversation messages.
// Messages are append-only; there is no update or delete.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	ListByConversation(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository returns a Postgres-backed implementation.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	const query = `
        INSERT INTO messages (conversation_id, sender_role, sender_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		message.ConversationID,
		message.Sender.Role,
		message.Sender.ID,
		message.Content,
	).Scan(&message.ID, &message.CreatedAt)
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	const query = `
        SELECT id, conversation_id, sender_role, sender_id, content, created_at
        FROM messages WHERE conversation_id=$1 ORDER BY created_at, id LIMIT $2`

	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.Sender.Role,
			&message.Sender.ID,
			&message.Content,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
