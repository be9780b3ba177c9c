package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/production-booking/internal/domain"
)

// ProductionNoteRepository manages append-only production notes.
type ProductionNoteRepository interface {
	Create(ctx context.Context, note *domain.ProductionNote) error
	ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionNote, error)
}

type productionNoteRepository struct {
	pool *pgxpool.Pool
}

// NewProductionNoteRepository builds repository.
func NewProductionNoteRepository(pool *pgxpool.Pool) ProductionNoteRepository {
	return &productionNoteRepository{pool: pool}
}

func (r *productionNoteRepository) Create(ctx context.Context, note *domain.ProductionNote) error {
	const query = `
        INSERT INTO production_notes (production_id, author_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.ProductionID,
		note.AuthorID,
		note.Body,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *productionNoteRepository) ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionNote, error) {
	const query = `
        SELECT id, production_id, author_id, body, created_at
        FROM production_notes WHERE production_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProductionNote
	for rows.Next() {
		var note domain.ProductionNote
		if err := rows.Scan(
			&note.ID,
			&note.ProductionID,
			&note.AuthorID,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
