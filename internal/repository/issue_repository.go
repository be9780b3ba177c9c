package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/production-booking/internal/domain"
)

// IssueRepository persists crew-reported issues.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListByProduction(ctx context.Context, productionID string) ([]domain.Issue, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository builds repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (production_id, reporter_id, description, priority, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.ProductionID,
		issue.ReporterID,
		issue.Description,
		string(issue.Priority),
		string(issue.Status),
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET priority=$1, status=$2, resolved_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		string(issue.Priority),
		string(issue.Status),
		issue.ResolvedAt,
		issue.ID,
	).Scan(&issue.UpdatedAt)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	const query = `
        SELECT id, production_id, reporter_id, description, priority, status, created_at, updated_at, resolved_at
        FROM issues WHERE id=$1`
	return scanIssue(r.pool.QueryRow(ctx, query, id))
}

func (r *issueRepository) ListByProduction(ctx context.Context, productionID string) ([]domain.Issue, error) {
	const query = `
        SELECT id, production_id, reporter_id, description, priority, status, created_at, updated_at, resolved_at
        FROM issues WHERE production_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, productionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var (
		issue    domain.Issue
		priority string
		status   string
	)
	if err := row.Scan(
		&issue.ID,
		&issue.ProductionID,
		&issue.ReporterID,
		&issue.Description,
		&priority,
		&status,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ResolvedAt,
	); err != nil {
		return nil, err
	}
	issue.Priority = domain.IssuePriority(priority)
	issue.Status = domain.IssueStatus(status)
	return &issue, nil
}
