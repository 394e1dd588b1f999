package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// ConversationFilter narrows conversation listings.
type ConversationFilter struct {
	Status *domain.ConversationStatus
	Limit  int
	Offset int
}

// ConversationRepository defines persistence access for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) error
	Update(ctx context.Context, conversation *domain.Conversation) error
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
	List(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, error)
}

type conversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository returns a Postgres-backed implementation.
func NewConversationRepository(pool *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{pool: pool}
}

const conversationColumns = `id, customer_id, agent_id, status, last_agent_intervention_at, created_at, updated_at`

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	const query = `
        INSERT INTO conversations (customer_id, agent_id, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		conversation.CustomerID,
		conversation.AgentID,
		conversation.Status,
	).Scan(&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt)
}

func (r *conversationRepository) Update(ctx context.Context, conversation *domain.Conversation) error {
	const query = `
        UPDATE conversations SET agent_id=$1, status=$2, last_agent_intervention_at=$3, updated_at=$4
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		conversation.AgentID,
		conversation.Status,
		conversation.LastAgentInterventionAt,
		conversation.UpdatedAt,
		conversation.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE id=$1`

	var conversation domain.Conversation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&conversation.ID,
		&conversation.CustomerID,
		&conversation.AgentID,
		&conversation.Status,
		&conversation.LastAgentInterventionAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) List(ctx context.Context, filter ConversationFilter) ([]domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations`
	args := []any{}
	if filter.Status != nil {
		query += ` WHERE status=$1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		var conversation domain.Conversation
		if err := rows.Scan(
			&conversation.ID,
			&conversation.CustomerID,
			&conversation.AgentID,
			&conversation.Status,
			&conversation.LastAgentInterventionAt,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	return conversations, rows.Err()
}
