package events

import (
	"time"

	"github.com/spec-kit/production-booking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProductionRequested EventType = "production_requested"
	EventProductionConfirmed EventType = "production_confirmed"
	EventAssignmentChanged   EventType = "assignment_changed"
	EventProductionCancelled EventType = "production_cancelled"
	EventProductionCompleted EventType = "production_completed"
	EventOvertimeReported    EventType = "overtime_reported"
	EventIssueReported       EventType = "issue_reported"
)

// AllEventTypes lists every event type in publication order.
func AllEventTypes() []EventType {
	return []EventType{
		EventProductionRequested,
		EventProductionConfirmed,
		EventAssignmentChanged,
		EventProductionCancelled,
		EventProductionCompleted,
		EventOvertimeReported,
		EventIssueReported,
	}
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range AllEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID         string            `json:"id"`
	Capability domain.Capability `json:"capability"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	ProductionID string    `json:"production_id"`
	Actor        Actor     `json:"actor"`
	// Recipients are the staff or requester ids the event concerns.
	Recipients []string    `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// StatusChangedPayload accompanies lifecycle transitions.
type StatusChangedPayload struct {
	ProductionName string                  `json:"production_name"`
	OldStatus      domain.ProductionStatus `json:"old_status"`
	NewStatus      domain.ProductionStatus `json:"new_status"`
	Reason         string                  `json:"reason,omitempty"`
}

// AssignmentPayload accompanies assignment commits.
type AssignmentPayload struct {
	ProductionName string               `json:"production_name"`
	AssignedStaff  domain.AssignedStaff `json:"assigned_staff"`
	Added          []string             `json:"added,omitempty"`
	Removed        []string             `json:"removed,omitempty"`
	ConflictCount  int                  `json:"conflict_count"`
}

// OvertimePayload accompanies overtime reports.
type OvertimePayload struct {
	ProductionName string    `json:"production_name"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	ActualEnd      time.Time `json:"actual_end"`
	Reason         string    `json:"reason"`
}

// IssueReportedPayload accompanies new issues.
type IssueReportedPayload struct {
	IssueID     string               `json:"issue_id"`
	Priority    domain.IssuePriority `json:"priority"`
	BodyPreview string               `json:"body_preview"`
}
