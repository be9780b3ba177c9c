package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/events"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// AssignmentResult is the committed production plus the advisory conflicts
// found for the staff rostered on it, keyed by staff id.
type AssignmentResult struct {
	Production *domain.Production
	Conflicts  map[string][]domain.Production
}

// AssignmentService rosters staff onto productions.
type AssignmentService struct {
	productions  repository.ProductionRepository
	staff        repository.StaffRepository
	availability *AvailabilityService
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          Clock
}

// AssignmentDependencies bundles repositories and collaborators.
type AssignmentDependencies struct {
	ProductionRepo repository.ProductionRepository
	StaffRepo      repository.StaffRepository
	Availability   *AvailabilityService
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Clock          Clock
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	availability := deps.Availability
	if availability == nil {
		availability = NewAvailabilityService(deps.ProductionRepo, deps.Metrics)
	}
	return &AssignmentService{
		productions:  deps.ProductionRepo,
		staff:        deps.StaffRepo,
		availability: availability,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          clockOrNow(deps.Clock),
	}
}

// PreviewAssignment checks every proposed staff member against the
// production's window without writing anything. Results are ordered by staff id.
func (s *AssignmentService) PreviewAssignment(ctx context.Context, productionID string, proposed domain.AssignedStaff) ([]AvailabilityResult, error) {
	roster, err := validateRoster(proposed)
	if err != nil {
		return nil, err
	}
	production, err := s.productions.GetByID(ctx, productionID)
	if err != nil {
		return nil, lookupError(err, "production", "production_id", productionID)
	}
	if err := s.ensureStaffExist(ctx, roster.StaffIDs()); err != nil {
		return nil, err
	}
	return s.checkRoster(ctx, production, roster)
}

// AssignStaff replaces the production's roster. Conflicts never block the
// commit; they are returned alongside the updated production. A requested
// production becomes confirmed. When the write succeeds but notification
// fails, the result is returned together with a NOTIFICATION_FAILED error.
// Re-submitting the stored roster writes nothing and notifies again.
func (s *AssignmentService) AssignStaff(ctx context.Context, actor domain.Actor, productionID string, proposed domain.AssignedStaff) (*AssignmentResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsBookingOfficer() {
		return nil, apperrors.NewForbidden("booking officer capability required")
	}
	roster, err := validateRoster(proposed)
	if err != nil {
		return nil, err
	}

	production, err := s.productions.GetByID(ctx, productionID)
	if err != nil {
		return nil, lookupError(err, "production", "production_id", productionID)
	}
	if production.Status.Terminal() {
		return nil, apperrors.NewInvalidTransition(production.ID, string(production.Status), string(domain.ProductionStatusConfirmed))
	}
	if err := s.ensureStaffExist(ctx, roster.StaffIDs()); err != nil {
		return nil, err
	}

	checks, err := s.checkRoster(ctx, production, roster)
	if err != nil {
		return nil, err
	}
	result := &AssignmentResult{Production: production, Conflicts: map[string][]domain.Production{}}
	for _, check := range checks {
		if !check.Available {
			result.Conflicts[check.StaffID] = check.Conflicts
		}
	}

	oldStatus := production.Status
	oldRoster := production.AssignedStaff.Normalize()
	newStatus := oldStatus
	if oldStatus == domain.ProductionStatusRequested {
		newStatus = domain.ProductionStatusConfirmed
	}
	sameProcessor := production.ProcessedByID != nil && *production.ProcessedByID == actor.ID
	if newStatus == oldStatus && sameProcessor && sameRoster(oldRoster, roster) {
		// Nothing to write, but the notification is sent again: the caller
		// may be retrying after NOTIFICATION_FAILED.
		event := assignmentEvent(actor, production, roster, nil, nil, len(result.Conflicts))
		if production.Status == domain.ProductionStatusConfirmed {
			event.Type = events.EventProductionConfirmed
			event.Recipients = withRequester(production, roster.StaffIDs())
		}
		return result, s.notify(ctx, production.ID, event)
	}

	added, removed := diffIDs(oldRoster.StaffIDs(), roster.StaffIDs())
	history := []*domain.ProductionHistory{{
		ProductionID: production.ID,
		ActorID:      actor.ID,
		ChangeType:   domain.ChangeTypeAssignment,
		OldValue:     map[string]any{"assigned_staff": oldRoster},
		NewValue:     map[string]any{"assigned_staff": roster},
	}}
	if newStatus != oldStatus {
		history = append(history, statusHistory(production.ID, actor.ID, oldStatus, newStatus, ""))
	}

	updated := *production
	updated.AssignedStaff = roster
	updated.ProcessedByID = &actor.ID
	updated.Status = newStatus
	updated.UpdatedAt = s.now()
	if err := s.productions.Update(ctx, &updated, oldStatus, history...); err != nil {
		return nil, writeError(ctx, s.productions, err, production.ID, newStatus)
	}
	*production = updated
	if newStatus != oldStatus {
		s.metrics.RecordTransition(string(oldStatus), string(newStatus))
	}

	s.logger.Info("staff assigned",
		zap.String("production_id", production.ID),
		zap.String("status", string(production.Status)),
		zap.Int("staff", len(roster.StaffIDs())),
		zap.Int("conflicts", len(result.Conflicts)))

	event := assignmentEvent(actor, production, roster, added, removed, len(result.Conflicts))
	if newStatus != oldStatus {
		event.Type = events.EventProductionConfirmed
		event.Recipients = withRequester(production, roster.StaffIDs())
	}
	return result, s.notify(ctx, production.ID, event)
}

func (s *AssignmentService) notify(ctx context.Context, productionID string, event events.Event) error {
	if err := publish(ctx, s.dispatcher, event); err != nil {
		s.logger.Warn("assignment notification failed", zap.String("production_id", productionID), zap.Error(err))
		return err
	}
	return nil
}

// assignmentEvent addresses the current roster plus anyone removed from it.
func assignmentEvent(actor domain.Actor, production *domain.Production, roster domain.AssignedStaff, added, removed []string, conflicts int) events.Event {
	return events.Event{
		Type:         events.EventAssignmentChanged,
		ProductionID: production.ID,
		Actor:        eventActor(actor),
		Recipients:   unionIDs(roster.StaffIDs(), removed),
		Timestamp:    production.UpdatedAt,
		Payload: events.AssignmentPayload{
			ProductionName: production.Name,
			AssignedStaff:  roster,
			Added:          added,
			Removed:        removed,
			ConflictCount:  conflicts,
		},
	}
}

func (s *AssignmentService) checkRoster(ctx context.Context, production *domain.Production, roster domain.AssignedStaff) ([]AvailabilityResult, error) {
	ids := roster.StaffIDs()
	results := make([]AvailabilityResult, 0, len(ids))
	for _, staffID := range ids {
		check, err := s.availability.CheckAvailability(ctx, staffID, production.Interval(), production.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, *check)
	}
	return results, nil
}

func (s *AssignmentService) ensureStaffExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.staff.ListByIDs(ctx, ids)
	if err != nil {
		return apperrors.MapError(err)
	}
	known := make(map[string]struct{}, len(found))
	for _, member := range found {
		known[member.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewNotFound("staff", map[string]any{"staff_ids": missing})
	}
	return nil
}

func validateRoster(proposed domain.AssignedStaff) (domain.AssignedStaff, error) {
	if err := proposed.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "assigned_staff"})
	}
	return proposed.Normalize(), nil
}

func sameRoster(a, b domain.AssignedStaff) bool {
	if len(a) != len(b) {
		return false
	}
	for slot, ids := range a {
		other, ok := b[slot]
		if !ok || len(other) != len(ids) {
			return false
		}
		left := append([]string(nil), ids...)
		right := append([]string(nil), other...)
		sort.Strings(left)
		sort.Strings(right)
		for i := range left {
			if left[i] != right[i] {
				return false
			}
		}
	}
	return true
}

// diffIDs expects both inputs sorted.
func diffIDs(before, after []string) (added, removed []string) {
	i, j := 0, 0
	for i < len(before) || j < len(after) {
		switch {
		case j == len(after) || (i < len(before) && before[i] < after[j]):
			removed = append(removed, before[i])
			i++
		case i == len(before) || after[j] < before[i]:
			added = append(added, after[j])
			j++
		default:
			i++
			j++
		}
	}
	return added, removed
}

func statusHistory(productionID, actorID string, from, to domain.ProductionStatus, reason string) *domain.ProductionHistory {
	newValue := map[string]any{"status": string(to)}
	if reason != "" {
		newValue["reason"] = reason
	}
	return &domain.ProductionHistory{
		ProductionID: productionID,
		ActorID:      actorID,
		ChangeType:   domain.ChangeTypeStatus,
		OldValue:     map[string]any{"status": string(from)},
		NewValue:     newValue,
	}
}
