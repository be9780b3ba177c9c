package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/production-booking/internal/domain"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

func TestRegisterStaff(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	member, err := h.staffSvc.RegisterStaff(ctx, officer, " Erin ", []domain.StaffRole{
		domain.StaffRoleElectrician, domain.StaffRoleTechnician, domain.StaffRoleElectrician,
	})
	require.NoError(t, err)
	assert.Equal(t, "Erin", member.Name)
	assert.Equal(t, []domain.StaffRole{domain.StaffRoleElectrician, domain.StaffRoleTechnician}, member.Roles)

	fetched, err := h.staffSvc.GetStaff(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, fetched.ID)

	_, err = h.staffSvc.RegisterStaff(ctx, producer, "Frank", []domain.StaffRole{domain.StaffRoleDirector})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = h.staffSvc.RegisterStaff(ctx, officer, "Frank", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = h.staffSvc.RegisterStaff(ctx, officer, "Frank", []domain.StaffRole{"producer"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = h.staffSvc.GetStaff(ctx, "nobody")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListStaff_BySlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	slot := domain.SlotCameraOperators
	members, err := h.staffSvc.ListStaff(ctx, StaffListFilters{Slot: &slot})
	require.NoError(t, err)
	require.NotNil(t, h.staff.last.Role)
	assert.Equal(t, domain.StaffRoleCameraOperator, *h.staff.last.Role)

	var ids []string
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"alice", "bob"}, ids)

	director := domain.SlotDirector
	members, err = h.staffSvc.ListStaff(ctx, StaffListFilters{Slot: &director})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].ID)

	unknown := domain.RoleSlot("producer")
	_, err = h.staffSvc.ListStaff(ctx, StaffListFilters{Slot: &unknown})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	all, err := h.staffSvc.ListStaff(ctx, StaffListFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
