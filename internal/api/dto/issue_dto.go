package dto

import (
	"time"

	"github.com/spec-kit/production-booking/internal/domain"
)

// ReportIssueRequest payload. Priority defaults to medium.
type ReportIssueRequest struct {
	Description string               `json:"description" validate:"required,max=2000"`
	Priority    domain.IssuePriority `json:"priority" validate:"omitempty,oneof=low medium high"`
}

// UpdateIssueStatusRequest payload.
type UpdateIssueStatusRequest struct {
	Status domain.IssueStatus `json:"status" validate:"required,oneof=pending in-progress resolved"`
}

// UpdateIssuePriorityRequest payload.
type UpdateIssuePriorityRequest struct {
	Priority domain.IssuePriority `json:"priority" validate:"required,oneof=low medium high"`
}

// IssueResponse is the wire shape of an issue.
type IssueResponse struct {
	ID           string               `json:"id"`
	ProductionID string               `json:"production_id"`
	ReporterID   string               `json:"reporter_id"`
	Description  string               `json:"description"`
	Priority     domain.IssuePriority `json:"priority"`
	Status       domain.IssueStatus   `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	ResolvedAt   *time.Time           `json:"resolved_at"`
}
