package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/production-booking/internal/domain"
)

// ProductionHistoryRepository reads audit entries. Entries are written by
// ProductionRepository in the same transaction as the change they record.
type ProductionHistoryRepository interface {
	ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionHistory, error)
}

type productionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewProductionHistoryRepository builds repository.
func NewProductionHistoryRepository(pool *pgxpool.Pool) ProductionHistoryRepository {
	return &productionHistoryRepository{pool: pool}
}

func insertHistory(ctx context.Context, tx pgx.Tx, history *domain.ProductionHistory) error {
	const query = `
        INSERT INTO production_history (production_id, actor_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		history.ProductionID,
		history.ActorID,
		string(history.ChangeType),
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *productionHistoryRepository) ListByProduction(ctx context.Context, productionID string) ([]domain.ProductionHistory, error) {
	const query = `
        SELECT id, production_id, actor_id, change_type, old_value, new_value, created_at
        FROM production_history WHERE production_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProductionHistory
	for rows.Next() {
		var (
			history    domain.ProductionHistory
			changeType string
		)
		if err := rows.Scan(
			&history.ID,
			&history.ProductionID,
			&history.ActorID,
			&changeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.ChangeType = domain.ProductionChangeType(changeType)
		result = append(result, history)
	}
	return result, rows.Err()
}
