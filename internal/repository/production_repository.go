package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/production-booking/internal/domain"
)

// ProductionFilter captures production search parameters.
type ProductionFilter struct {
	StaffID     *string
	RequesterID *string
	Statuses    []domain.ProductionStatus
	DateFrom    *time.Time
	DateTo      *time.Time
	// Limit <= 0 returns every matching row.
	Limit  int
	Offset int
}

// ErrStatusChanged is returned by Update when the stored status no longer
// matches the status the caller read.
var ErrStatusChanged = errors.New("production status changed concurrently")

// ProductionRepository encapsulates production persistence. Writes and the
// history rows describing them commit in one transaction.
type ProductionRepository interface {
	Create(ctx context.Context, production *domain.Production, history *domain.ProductionHistory) error
	// Update applies only while the stored status equals expected.
	Update(ctx context.Context, production *domain.Production, expected domain.ProductionStatus, history ...*domain.ProductionHistory) error
	GetByID(ctx context.Context, id string) (*domain.Production, error)
	ListWithFilter(ctx context.Context, filter ProductionFilter) ([]domain.Production, error)
}

type productionRepository struct {
	pool *pgxpool.Pool
}

// NewProductionRepository instantiates repository.
func NewProductionRepository(pool *pgxpool.Pool) ProductionRepository {
	return &productionRepository{pool: pool}
}

const productionColumns = `id, name, production_date, call_time, start_time, end_time, actual_end_time,
               venue, outside_broadcast, location, status, assigned_staff, requested_by_id, processed_by_id,
               overtime_reported, overtime_reason, cancellation_reason, created_at, updated_at`

func (r *productionRepository) Create(ctx context.Context, production *domain.Production, history *domain.ProductionHistory) error {
	assigned, err := json.Marshal(production.AssignedStaff)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO productions (name, production_date, call_time, start_time, end_time, venue,
            outside_broadcast, location, status, assigned_staff, staff_ids, requested_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			production.Name,
			production.Date,
			production.CallTime,
			production.StartTime,
			production.EndTime,
			production.Venue,
			production.OutsideBroadcast,
			production.Location,
			string(production.Status),
			assigned,
			production.AssignedStaff.StaffIDs(),
			production.RequestedByID,
		).Scan(&production.ID, &production.CreatedAt, &production.UpdatedAt)
		if err != nil {
			return err
		}
		if history == nil {
			return nil
		}
		history.ProductionID = production.ID
		return insertHistory(ctx, tx, history)
	})
}

func (r *productionRepository) Update(ctx context.Context, production *domain.Production, expected domain.ProductionStatus, history ...*domain.ProductionHistory) error {
	assigned, err := json.Marshal(production.AssignedStaff)
	if err != nil {
		return err
	}
	const query = `
        UPDATE productions SET status=$1, assigned_staff=$2, staff_ids=$3, processed_by_id=$4,
            actual_end_time=$5, overtime_reported=$6, overtime_reason=$7, cancellation_reason=$8, updated_at=$9
        WHERE id=$10 AND status=$11`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query,
			string(production.Status),
			assigned,
			production.AssignedStaff.StaffIDs(),
			production.ProcessedByID,
			production.ActualEndTime,
			production.OvertimeReported,
			production.OvertimeReason,
			production.CancellationReason,
			production.UpdatedAt,
			production.ID,
			string(expected),
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM productions WHERE id=$1)`, production.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return pgx.ErrNoRows
			}
			return ErrStatusChanged
		}
		for _, entry := range history {
			entry.ProductionID = production.ID
			if err := insertHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *productionRepository) GetByID(ctx context.Context, id string) (*domain.Production, error) {
	query := `SELECT ` + productionColumns + ` FROM productions WHERE id=$1`
	return scanProduction(r.pool.QueryRow(ctx, query, id))
}

func (r *productionRepository) ListWithFilter(ctx context.Context, filter ProductionFilter) ([]domain.Production, error) {
	query, args := buildProductionListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Production
	for rows.Next() {
		production, err := scanProduction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *production)
	}
	return result, rows.Err()
}

func buildProductionListQuery(filter ProductionFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(staff_ids)", len(args)))
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requested_by_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("production_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("production_date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM productions WHERE %s ORDER BY production_date ASC, start_time ASC, id ASC`,
		productionColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}
	return query, args
}

func scanProduction(row pgx.Row) (*domain.Production, error) {
	var (
		production domain.Production
		status     string
		assigned   []byte
	)
	if err := row.Scan(
		&production.ID,
		&production.Name,
		&production.Date,
		&production.CallTime,
		&production.StartTime,
		&production.EndTime,
		&production.ActualEndTime,
		&production.Venue,
		&production.OutsideBroadcast,
		&production.Location,
		&status,
		&assigned,
		&production.RequestedByID,
		&production.ProcessedByID,
		&production.OvertimeReported,
		&production.OvertimeReason,
		&production.CancellationReason,
		&production.CreatedAt,
		&production.UpdatedAt,
	); err != nil {
		return nil, err
	}
	production.Status = domain.ProductionStatus(status)
	production.AssignedStaff = domain.AssignedStaff{}
	if len(assigned) > 0 {
		if err := json.Unmarshal(assigned, &production.AssignedStaff); err != nil {
			return nil, fmt.Errorf("decode assigned_staff for production %s: %w", production.ID, err)
		}
	}
	return &production, nil
}
