package domain

import "time"

// ProductionChangeType captures what changed in a history entry.
type ProductionChangeType string

const (
	ChangeTypeCreated    ProductionChangeType = "CREATED"
	ChangeTypeStatus     ProductionChangeType = "STATUS_CHANGE"
	ChangeTypeAssignment ProductionChangeType = "ASSIGNMENT_CHANGE"
	ChangeTypeOvertime   ProductionChangeType = "OVERTIME_REPORTED"
)

// ProductionHistory is an immutable audit trail entry.
type ProductionHistory struct {
	ID           string
	ProductionID string
	ActorID      string
	ChangeType   ProductionChangeType
	OldValue     map[string]any
	NewValue     map[string]any
	CreatedAt    time.Time
}

// ProductionNote is an append-only remark attached to a production.
type ProductionNote struct {
	ID           string
	ProductionID string
	AuthorID     string
	Body         string
	CreatedAt    time.Time
}
