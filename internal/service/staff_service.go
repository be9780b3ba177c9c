package service

import (
	"context"
	"strings"

	"github.com/spec-kit/production-booking/internal/domain"
	"github.com/spec-kit/production-booking/internal/repository"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

// StaffService manages the crew directory.
type StaffService struct {
	staff repository.StaffRepository
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	// Slot narrows the list to staff able to fill a roster slot.
	Slot   *domain.RoleSlot
	Limit  int
	Offset int
}

// NewStaffService constructs the service.
func NewStaffService(staff repository.StaffRepository) *StaffService {
	return &StaffService{staff: staff}
}

// RegisterStaff adds a crew member. Staff are never deleted.
func (s *StaffService) RegisterStaff(ctx context.Context, actor domain.Actor, name string, roles []domain.StaffRole) (*domain.StaffMember, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsBookingOfficer() {
		return nil, apperrors.NewForbidden("booking officer capability required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if len(roles) == 0 {
		return nil, apperrors.NewValidationError("at least one role is required", map[string]any{"field": "roles"})
	}
	seen := map[domain.StaffRole]struct{}{}
	unique := make([]domain.StaffRole, 0, len(roles))
	for _, role := range roles {
		if !domain.ValidStaffRole(role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		unique = append(unique, role)
	}

	member := &domain.StaffMember{Name: name, Roles: unique}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// GetStaff fetches a staff member.
func (s *StaffService) GetStaff(ctx context.Context, id string) (*domain.StaffMember, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "staff", "staff_id", id)
	}
	return member, nil
}

// ListStaff lists staff, optionally only candidates for one roster slot.
func (s *StaffService) ListStaff(ctx context.Context, filters StaffListFilters) ([]domain.StaffMember, error) {
	repoFilter := repository.StaffFilter{Limit: filters.Limit, Offset: filters.Offset}
	if filters.Slot != nil {
		def, ok := domain.LookupSlot(*filters.Slot)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role slot", map[string]any{"slot": string(*filters.Slot)})
		}
		role := def.Role
		repoFilter.Role = &role
	}
	members, err := s.staff.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}
