package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// AgentRepository defines persistence access for agents.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	Count(ctx context.Context) (int64, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository returns a Postgres-backed implementation.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (name, email, password_hash, role, active, available)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.PasswordHash,
		agent.Role,
		agent.Active,
		agent.Available,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	const query = `
        UPDATE agents SET name=$1, email=$2, password_hash=$3, role=$4, active=$5, available=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		agent.Name,
		agent.Email,
		agent.PasswordHash,
		agent.Role,
		agent.Active,
		agent.Available,
		agent.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, available, created_at, updated_at
        FROM agents WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, available, created_at, updated_at
        FROM agents WHERE email=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	const query = `
        SELECT id, name, email, password_hash, role, active, available, created_at, updated_at
        FROM agents ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := []domain.Agent{}
	for rows.Next() {
		var agent domain.Agent
		if err := rows.Scan(
			&agent.ID,
			&agent.Name,
			&agent.Email,
			&agent.PasswordHash,
			&agent.Role,
			&agent.Active,
			&agent.Available,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		); err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *agentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *agentRepository) scanOne(row pgx.Row) (*domain.Agent, error) {
	var agent domain.Agent
	if err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.PasswordHash,
		&agent.Role,
		&agent.Active,
		&agent.Available,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
