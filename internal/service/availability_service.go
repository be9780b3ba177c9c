package service

import (
	"context"
	"strings"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/observability"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// AvailabilityResult is the outcome of checking one staff member against a window.
type AvailabilityResult struct {
	StaffID   string
	Available bool
	Conflicts []domain.Production
}

// AvailabilityService answers whether staff are free for a time window.
// It only reads and holds no state between calls.
type AvailabilityService struct {
	productions repository.ProductionRepository
	metrics     *observability.Metrics
}

// NewAvailabilityService creates the service.
func NewAvailabilityService(productions repository.ProductionRepository, metrics *observability.Metrics) *AvailabilityService {
	return &AvailabilityService{productions: productions, metrics: metrics}
}

// CheckAvailability lists every confirmed or overtime production the staff
// member is rostered on whose window overlaps candidate. excludeProductionID
// may be empty.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, staffID string, candidate domain.Interval, excludeProductionID string) (*AvailabilityResult, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return nil, apperrors.NewValidationError("staff id is required", nil)
	}
	if !candidate.Valid() {
		return nil, apperrors.NewValidationError("start must be before end", map[string]any{
			"start": candidate.Start,
			"end":   candidate.End,
		})
	}

	rostered, err := s.productions.ListWithFilter(ctx, repository.ProductionFilter{
		StaffID:  &staffID,
		Statuses: domain.BlockingStatuses(),
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &AvailabilityResult{StaffID: staffID, Conflicts: []domain.Production{}}
	for _, production := range rostered {
		if excludeProductionID != "" && production.ID == excludeProductionID {
			continue
		}
		if production.Interval().Overlaps(candidate) {
			result.Conflicts = append(result.Conflicts, production)
		}
	}
	result.Available = len(result.Conflicts) == 0
	s.metrics.RecordConflicts(len(result.Conflicts))
	return result, nil
}
