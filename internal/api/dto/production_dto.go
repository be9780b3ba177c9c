package dto

import (
	"time"

	"github.com/spec-kit/production-booking/internal/domain"
)

// CreateProductionRequest payload. Times of day are HH:MM on the given date.
type CreateProductionRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	CallTime         string `json:"call_time" validate:"omitempty,datetime=15:04"`
	StartTime        string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime          string `json:"end_time" validate:"required,datetime=15:04"`
	Venue            string `json:"venue" validate:"max=200"`
	OutsideBroadcast bool   `json:"outside_broadcast"`
	Location         string `json:"location" validate:"required_if=OutsideBroadcast true,max=200"`
}

// AssignStaffRequest replaces the roster. Omitted slots are cleared.
type AssignStaffRequest struct {
	AssignedStaff domain.AssignedStaff `json:"assigned_staff" validate:"required"`
}

// CancelProductionRequest payload.
type CancelProductionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReportOvertimeRequest payload.
type ReportOvertimeRequest struct {
	ActualEndTime time.Time `json:"actual_end_time" validate:"required"`
	Reason        string    `json:"reason" validate:"required,max=500"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// ProductionResponse is the wire shape of a production.
type ProductionResponse struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	Date               string                  `json:"date"`
	CallTime           time.Time               `json:"call_time"`
	StartTime          time.Time               `json:"start_time"`
	EndTime            time.Time               `json:"end_time"`
	ActualEndTime      *time.Time              `json:"actual_end_time,omitempty"`
	Venue              string                  `json:"venue"`
	OutsideBroadcast   bool                    `json:"outside_broadcast"`
	Location           string                  `json:"location,omitempty"`
	Status             domain.ProductionStatus `json:"status"`
	AssignedStaff      domain.AssignedStaff    `json:"assigned_staff"`
	RequestedByID      string                  `json:"requested_by_id"`
	ProcessedByID      *string                 `json:"processed_by_id"`
	OvertimeReported   bool                    `json:"overtime_reported"`
	OvertimeReason     string                  `json:"overtime_reason,omitempty"`
	CancellationReason string                  `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

// AssignmentResponse returns the committed production and advisory conflicts.
type AssignmentResponse struct {
	Production ProductionResponse            `json:"production"`
	Conflicts  map[string][]ConflictResponse `json:"conflicts"`
}

// ConflictResponse summarises a production that overlaps a candidate window.
type ConflictResponse struct {
	ProductionID string                  `json:"production_id"`
	Name         string                  `json:"name"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Status       domain.ProductionStatus `json:"status"`
	Slots        []domain.RoleSlot       `json:"slots"`
}

// AvailabilityResponse is one staff member's availability check.
type AvailabilityResponse struct {
	StaffID   string             `json:"staff_id"`
	Available bool               `json:"available"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID         string                      `json:"id"`
	ActorID    string                      `json:"actor_id"`
	ChangeType domain.ProductionChangeType `json:"change_type"`
	OldValue   map[string]any              `json:"old_value"`
	NewValue   map[string]any              `json:"new_value"`
	CreatedAt  time.Time                   `json:"created_at"`
}

// NoteResponse is one production note.
type NoteResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
