package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// allowedTransitions is the production lifecycle. Terminal states have no entry.
var allowedTransitions = map[domain.ProductionStatus][]domain.ProductionStatus{
	domain.ProductionStatusRequested: {domain.ProductionStatusConfirmed, domain.ProductionStatusCancelled},
	domain.ProductionStatusConfirmed: {domain.ProductionStatusOvertime, domain.ProductionStatusCompleted, domain.ProductionStatusCancelled},
	domain.ProductionStatusOvertime:  {domain.ProductionStatusCompleted, domain.ProductionStatusCancelled},
}

func canTransition(from, to domain.ProductionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProductionCreateInput describes a new booking request. Times are absolute.
type ProductionCreateInput struct {
	Name             string
	Date             time.Time
	CallTime         time.Time
	StartTime        time.Time
	EndTime          time.Time
	Venue            string
	OutsideBroadcast bool
	Location         string
}

// ProductionListFilter captures listing parameters.
type ProductionListFilter struct {
	Statuses    []domain.ProductionStatus
	StaffID     *string
	RequesterID *string
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}

// ProductionService owns the production lifecycle.
type ProductionService struct {
	productions repository.ProductionRepository
	historyRepo repository.ProductionHistoryRepository
	notes       repository.ProductionNoteRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         Clock
	location    *time.Location
}

// ProductionDependencies bundles repositories and collaborators.
type ProductionDependencies struct {
	ProductionRepo repository.ProductionRepository
	HistoryRepo    repository.ProductionHistoryRepository
	NoteRepo       repository.ProductionNoteRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
	// Location decides which calendar day "the production day" is.
	Location *time.Location
}

// NewProductionService creates the service.
func NewProductionService(deps ProductionDependencies) *ProductionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &ProductionService{
		productions: deps.ProductionRepo,
		historyRepo: deps.HistoryRepo,
		notes:       deps.NoteRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         clockOrNow(deps.Clock),
		location:    loc,
	}
}

// CreateProduction records a booking request in the requested state.
func (s *ProductionService) CreateProduction(ctx context.Context, actor domain.Actor, input ProductionCreateInput) (*domain.Production, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Capability != domain.CapabilityProducer && !actor.IsBookingOfficer() {
		return nil, apperrors.NewForbidden("producer or booking officer capability required")
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	production := &domain.Production{
		Name:             input.Name,
		Date:             input.Date,
		CallTime:         input.CallTime,
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
		Venue:            input.Venue,
		OutsideBroadcast: input.OutsideBroadcast,
		Location:         input.Location,
		Status:           domain.ProductionStatusRequested,
		AssignedStaff:    domain.AssignedStaff{},
		RequestedByID:    actor.ID,
	}
	created := &domain.ProductionHistory{
		ActorID:    actor.ID,
		ChangeType: domain.ChangeTypeCreated,
		NewValue:   map[string]any{"status": string(production.Status)},
	}
	if err := s.productions.Create(ctx, production, created); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("production requested", zap.String("production_id", production.ID), zap.String("requested_by", actor.ID))

	err := publish(ctx, s.dispatcher, events.Event{
		Type:         events.EventProductionRequested,
		ProductionID: production.ID,
		Actor:        eventActor(actor),
		Recipients:   []string{},
		Timestamp:    s.now(),
		Payload: events.StatusChangedPayload{
			ProductionName: production.Name,
			NewStatus:      production.Status,
		},
	})
	return production, err
}

// GetProduction fetches a production by id.
func (s *ProductionService) GetProduction(ctx context.Context, id string) (*domain.Production, error) {
	production, err := s.productions.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "production", "production_id", id)
	}
	return production, nil
}

// ListProductions returns productions ordered by date and start time.
func (s *ProductionService) ListProductions(ctx context.Context, filter ProductionListFilter) ([]domain.Production, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
		}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, apperrors.NewValidationError("date_to must not be before date_from", nil)
	}
	productions, err := s.productions.ListWithFilter(ctx, repository.ProductionFilter{
		StaffID:     filter.StaffID,
		RequesterID: filter.RequesterID,
		Statuses:    filter.Statuses,
		DateFrom:    filter.DateFrom,
		DateTo:      filter.DateTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return productions, nil
}

// StaffSchedule lists the confirmed and overtime productions a staff member
// is rostered on within an inclusive date range.
func (s *ProductionService) StaffSchedule(ctx context.Context, staffID string, from, to *time.Time) ([]domain.Production, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, apperrors.NewValidationError("staff id is required", nil)
	}
	return s.ListProductions(ctx, ProductionListFilter{
		StaffID:  &staffID,
		Statuses: domain.BlockingStatuses(),
		DateFrom: from,
		DateTo:   to,
	})
}

// CancelProduction moves a non-terminal production to cancelled.
func (s *ProductionService) CancelProduction(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Production, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsBookingOfficer() {
		return nil, apperrors.NewForbidden("booking officer capability required")
	}
	production, err := s.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	err = s.transition(ctx, actor, production, domain.ProductionStatusCancelled, reason, func(p *domain.Production) {
		p.CancellationReason = reason
	})
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotifyFailed) {
		return nil, err
	}
	return production, err
}

// CompleteProduction marks a confirmed or overtime production as done.
func (s *ProductionService) CompleteProduction(ctx context.Context, actor domain.Actor, id string) (*domain.Production, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	production, err := s.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, actor, production, domain.ProductionStatusCompleted, "", nil)
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotifyFailed) {
		return nil, err
	}
	return production, err
}

// ReportOvertime records that a confirmed production ran past its end time.
// Only rostered staff or a booking officer may report, and only on the
// production day.
func (s *ProductionService) ReportOvertime(ctx context.Context, actor domain.Actor, id string, actualEnd time.Time, reason string) (*domain.Production, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("overtime reason is required", map[string]any{"field": "reason"})
	}
	production, err := s.GetProduction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsBookingOfficer() && !production.AssignedStaff.Holds(actor.ID) {
		return nil, apperrors.NewForbidden("only rostered staff or a booking officer may report overtime")
	}

	denied := apperrors.NewInvalidTransition(production.ID, string(production.Status), string(domain.ProductionStatusOvertime))
	if !actualEnd.After(production.EndTime) {
		return nil, denied
	}
	if !domain.SameDay(s.now(), production.StartTime, s.location) {
		return nil, denied
	}

	scheduledEnd := production.EndTime
	err = s.transition(ctx, actor, production, domain.ProductionStatusOvertime, reason, func(p *domain.Production) {
		end := actualEnd
		p.ActualEndTime = &end
		p.OvertimeReported = true
		p.OvertimeReason = reason
	})
	if err != nil && !apperrors.IsCode(err, apperrors.CodeNotifyFailed) {
		return nil, err
	}
	s.logger.Info("overtime reported",
		zap.String("production_id", production.ID),
		zap.Time("scheduled_end", scheduledEnd),
		zap.Time("actual_end", actualEnd),
		zap.Duration("overrun", domain.Interval{Start: scheduledEnd, End: actualEnd}.Duration()))
	return production, err
}

// AddNote appends a note. Notes are accepted in every status.
func (s *ProductionService) AddNote(ctx context.Context, actor domain.Actor, id, body string) (*domain.ProductionNote, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("note body is required", map[string]any{"field": "body"})
	}
	if _, err := s.GetProduction(ctx, id); err != nil {
		return nil, err
	}
	note := &domain.ProductionNote{ProductionID: id, AuthorID: actor.ID, Body: body}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// ListNotes returns notes oldest first.
func (s *ProductionService) ListNotes(ctx context.Context, id string) ([]domain.ProductionNote, error) {
	if _, err := s.GetProduction(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByProduction(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return notes, nil
}

// ListHistory returns the audit trail oldest first.
func (s *ProductionService) ListHistory(ctx context.Context, id string) ([]domain.ProductionHistory, error) {
	if _, err := s.GetProduction(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListByProduction(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// transition applies a guarded status change. On a guard violation nothing is
// written. When only the notification fails the production is already updated
// and the returned error carries NOTIFICATION_FAILED.
func (s *ProductionService) transition(ctx context.Context, actor domain.Actor, production *domain.Production, to domain.ProductionStatus, reason string, apply func(*domain.Production)) error {
	from := production.Status
	if !canTransition(from, to) {
		return apperrors.NewInvalidTransition(production.ID, string(from), string(to))
	}

	updated := *production
	if apply != nil {
		apply(&updated)
	}
	updated.Status = to
	updated.UpdatedAt = s.now()

	history := statusHistory(production.ID, actor.ID, from, to, reason)
	if to == domain.ProductionStatusOvertime {
		history.ChangeType = domain.ChangeTypeOvertime
		history.NewValue["actual_end_time"] = updated.ActualEndTime
	}
	if err := s.productions.Update(ctx, &updated, from, history); err != nil {
		return writeError(ctx, s.productions, err, production.ID, to)
	}
	*production = updated
	s.metrics.RecordTransition(string(from), string(to))
	s.logger.Info("production status changed",
		zap.String("production_id", production.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.ID))

	return publish(ctx, s.dispatcher, transitionEvent(actor, production, from, reason))
}

func transitionEvent(actor domain.Actor, production *domain.Production, from domain.ProductionStatus, reason string) events.Event {
	event := events.Event{
		ProductionID: production.ID,
		Actor:        eventActor(actor),
		Timestamp:    production.UpdatedAt,
		Payload: events.StatusChangedPayload{
			ProductionName: production.Name,
			OldStatus:      from,
			NewStatus:      production.Status,
			Reason:         reason,
		},
	}
	switch production.Status {
	case domain.ProductionStatusCancelled:
		event.Type = events.EventProductionCancelled
		event.Recipients = production.AssignedStaff.StaffIDs()
	case domain.ProductionStatusCompleted:
		event.Type = events.EventProductionCompleted
		event.Recipients = withRequester(production, production.AssignedStaff.StaffIDs())
	case domain.ProductionStatusOvertime:
		event.Type = events.EventOvertimeReported
		event.Recipients = []string{production.RequestedByID}
		var actual time.Time
		if production.ActualEndTime != nil {
			actual = *production.ActualEndTime
		}
		event.Payload = events.OvertimePayload{
			ProductionName: production.Name,
			ScheduledEnd:   production.EndTime,
			ActualEnd:      actual,
			Reason:         reason,
		}
	}
	return event
}

func validateCreateInput(input *ProductionCreateInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Venue = strings.TrimSpace(input.Venue)
	input.Location = strings.TrimSpace(input.Location)

	details := map[string]any{}
	if input.Name == "" {
		details["name"] = "required"
	}
	if input.Date.IsZero() {
		details["date"] = "required"
	}
	if !input.StartTime.Before(input.EndTime) {
		details["end_time"] = "must be after start_time"
	}
	if !input.CallTime.IsZero() && input.CallTime.After(input.StartTime) {
		details["call_time"] = "must not be after start_time"
	}
	if input.OutsideBroadcast && input.Location == "" {
		details["location"] = "required for outside broadcasts"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid production", details)
	}
	if input.CallTime.IsZero() {
		input.CallTime = input.StartTime
	}
	return nil
}
