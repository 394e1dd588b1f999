package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

// TrainingRepository defines persistence access for the responder's
// training corpus.
type TrainingRepository interface {
	Create(ctx context.Context, entry *domain.TrainingEntry) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.TrainingEntry, error)
}

type trainingRepository struct {
	pool *pgxpool.Pool
}

// NewTrainingRepository returns a Postgres-backed implementation.
func NewTrainingRepository(pool *pgxpool.Pool) TrainingRepository {
	return &trainingRepository{pool: pool}
}

func (r *trainingRepository) Create(ctx context.Context, entry *domain.TrainingEntry) error {
	const query = `
        INSERT INTO training_entries (trigger_phrase, answer, category)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.Trigger,
		entry.Answer,
		entry.Category,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *trainingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM training_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *trainingRepository) List(ctx context.Context) ([]domain.TrainingEntry, error) {
	const query = `
        SELECT id, trigger_phrase, answer, category, created_at
        FROM training_entries ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.TrainingEntry{}
	for rows.Next() {
		var entry domain.TrainingEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Trigger,
			&entry.Answer,
			&entry.Category,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
