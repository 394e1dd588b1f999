package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// CustomerRepository defines persistence access for widget visitors.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetLatestByIP(ctx context.Context, ip string) (*domain.Customer, error)
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, session_id, name, email, phone, ip_address, user_agent, country, identified, last_seen_at, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (session_id, name, email, phone, ip_address, user_agent, country, identified, last_seen_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        RETURNING id, last_seen_at, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		customer.SessionID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.IPAddress,
		customer.UserAgent,
		customer.Country,
		customer.Identified,
	).Scan(&customer.ID, &customer.LastSeenAt, &customer.CreatedAt, &customer.UpdatedAt)
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET name=$1, email=$2, phone=$3, ip_address=$4, user_agent=$5, country=$6,
            identified=$7, last_seen_at=$8, updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.IPAddress,
		customer.UserAgent,
		customer.Country,
		customer.Identified,
		customer.LastSeenAt,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const query = `
        SELECT ` + customerColumns + `
        FROM customers WHERE email=$1 ORDER BY last_seen_at DESC LIMIT 1`

	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *customerRepository) GetLatestByIP(ctx context.Context, ip string) (*domain.Customer, error) {
	const query = `
        SELECT ` + customerColumns + `
        FROM customers WHERE ip_address=$1 ORDER BY last_seen_at DESC LIMIT 1`

	return r.scanOne(r.pool.QueryRow(ctx, query, ip))
}

func (r *customerRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Customer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE session_id=$1`, sessionID))
}

func (r *customerRepository) scanOne(row pgx.Row) (*domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.SessionID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.IPAddress,
		&customer.UserAgent,
		&customer.Country,
		&customer.Identified,
		&customer.LastSeenAt,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
