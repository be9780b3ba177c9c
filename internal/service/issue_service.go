package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// IssueService manages problems reported against productions.
type IssueService struct {
	issues      repository.IssueRepository
	productions repository.ProductionRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         Clock
}

// IssueDependencies bundles repositories and collaborators.
type IssueDependencies struct {
	IssueRepo      repository.IssueRepository
	ProductionRepo repository.ProductionRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          Clock
}

// NewIssueService creates the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:      deps.IssueRepo,
		productions: deps.ProductionRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         clockOrNow(deps.Clock),
	}
}

// ReportIssue files a pending issue and notifies the production's requester.
// An empty priority defaults to medium.
func (s *IssueService) ReportIssue(ctx context.Context, actor domain.Actor, productionID, description string, priority domain.IssuePriority) (*domain.Issue, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	}
	if priority == "" {
		priority = domain.IssuePriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}
	production, err := s.productions.GetByID(ctx, productionID)
	if err != nil {
		return nil, lookupError(err, "production", "production_id", productionID)
	}

	issue := &domain.Issue{
		ProductionID: production.ID,
		ReporterID:   actor.ID,
		Description:  description,
		Priority:     priority,
		Status:       domain.IssueStatusPending,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("issue reported",
		zap.String("production_id", production.ID),
		zap.String("issue_id", issue.ID),
		zap.String("priority", string(issue.Priority)))

	err = publish(ctx, s.dispatcher, events.Event{
		Type:         events.EventIssueReported,
		ProductionID: production.ID,
		Actor:        eventActor(actor),
		Recipients:   []string{production.RequestedByID},
		Timestamp:    s.now(),
		Payload: events.IssueReportedPayload{
			IssueID:     issue.ID,
			Priority:    issue.Priority,
			BodyPreview: stringPreview(issue.Description, 140),
		},
	})
	return issue, err
}

// UpdateIssueStatus moves an issue between pending, in-progress and resolved.
func (s *IssueService) UpdateIssueStatus(ctx context.Context, actor domain.Actor, issueID string, status domain.IssueStatus) (*domain.Issue, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(status)})
	}
	issue, err := s.loadForUpdate(ctx, actor, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status == status {
		return issue, nil
	}
	issue.Status = status
	if status == domain.IssueStatusResolved {
		resolved := s.now()
		issue.ResolvedAt = &resolved
	} else {
		issue.ResolvedAt = nil
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, lookupError(err, "issue", "issue_id", issueID)
	}
	return issue, nil
}

// UpdateIssuePriority changes an issue's priority.
func (s *IssueService) UpdateIssuePriority(ctx context.Context, actor domain.Actor, issueID string, priority domain.IssuePriority) (*domain.Issue, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": string(priority)})
	}
	issue, err := s.loadForUpdate(ctx, actor, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Priority == priority {
		return issue, nil
	}
	issue.Priority = priority
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, lookupError(err, "issue", "issue_id", issueID)
	}
	return issue, nil
}

// GetIssue fetches one issue.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupError(err, "issue", "issue_id", issueID)
	}
	return issue, nil
}

// ListIssues returns the issues filed against a production, newest first.
func (s *IssueService) ListIssues(ctx context.Context, productionID string) ([]domain.Issue, error) {
	if _, err := s.productions.GetByID(ctx, productionID); err != nil {
		return nil, lookupError(err, "production", "production_id", productionID)
	}
	issues, err := s.issues.ListByProduction(ctx, productionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

func (s *IssueService) loadForUpdate(ctx context.Context, actor domain.Actor, issueID string) (*domain.Issue, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	issue, err := s.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !actor.IsBookingOfficer() && issue.ReporterID != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter or a booking officer may update an issue")
	}
	return issue, nil
}
