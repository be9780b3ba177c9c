package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/production-booking/internal/domain"
	apperrors "github.com/spec-kit/production-booking/pkg/util/errorutil"
)

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t)
	camera := domain.AssignedStaff{domain.SlotCameraOperators: {"alice", "bob"}}
	h.productions.seed(confirmedOn("morning", on(10, 0), on(12, 0), camera))
	h.productions.seed(confirmedOn("evening", on(18, 0), on(20, 0), domain.AssignedStaff{domain.SlotDirector: {"alice"}}))

	cases := []struct {
		name      string
		staffID   string
		start     time.Time
		end       time.Time
		exclude   string
		conflicts []string
	}{
		{"overlaps morning", "alice", on(11, 0), on(13, 0), "", []string{"morning"}},
		{"touching end is free", "alice", on(12, 0), on(14, 0), "", nil},
		{"touching start is free", "alice", on(8, 0), on(10, 0), "", nil},
		{"contains both", "alice", on(9, 0), on(21, 0), "", []string{"morning", "evening"}},
		{"scalar slot counts", "alice", on(19, 0), on(19, 30), "", []string{"evening"}},
		{"excluded production skipped", "alice", on(11, 0), on(13, 0), "morning", nil},
		{"other staff member", "carol", on(11, 0), on(13, 0), "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candidate, err := domain.NewInterval(tc.start, tc.end)
			require.NoError(t, err)

			result, err := h.availability.CheckAvailability(context.Background(), tc.staffID, candidate, tc.exclude)
			require.NoError(t, err)

			var ids []string
			for _, p := range result.Conflicts {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tc.conflicts, ids)
			assert.Equal(t, len(tc.conflicts) == 0, result.Available)
		})
	}
}

func TestCheckAvailability_OnlyConfirmedAndOvertimeBlock(t *testing.T) {
	h := newHarness(t)
	roster := domain.AssignedStaff{domain.SlotSoundOperators: {"carol"}}
	for _, status := range []domain.ProductionStatus{
		domain.ProductionStatusRequested,
		domain.ProductionStatusConfirmed,
		domain.ProductionStatusOvertime,
		domain.ProductionStatusCompleted,
		domain.ProductionStatusCancelled,
	} {
		p := confirmedOn(string(status), on(10, 0), on(12, 0), roster)
		p.Status = status
		h.productions.seed(p)
	}

	result, err := h.availability.CheckAvailability(context.Background(), "carol", domain.Interval{Start: on(11, 0), End: on(11, 30)}, "")
	require.NoError(t, err)

	var ids []string
	for _, p := range result.Conflicts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"confirmed", "overtime"}, ids)
	assert.False(t, result.Available)
	assert.Equal(t, float64(2), h.counterValue(t, "availability_conflicts_total", nil))
}

func TestCheckAvailability_UsesWindowNotCallTime(t *testing.T) {
	h := newHarness(t)
	p := confirmedOn("late", on(14, 0), on(16, 0), domain.AssignedStaff{domain.SlotTechnician: {"dan"}})
	p.CallTime = on(11, 0)
	h.productions.seed(p)

	result, err := h.availability.CheckAvailability(context.Background(), "dan", domain.Interval{Start: on(12, 0), End: on(13, 0)}, "")
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)
}

func TestCheckAvailability_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.availability.CheckAvailability(context.Background(), "alice", domain.Interval{Start: on(12, 0), End: on(12, 0)}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = h.availability.CheckAvailability(context.Background(), " ", domain.Interval{Start: on(10, 0), End: on(12, 0)}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	h.productions.err = fmt.Errorf("query productions: %w", context.DeadlineExceeded)
	_, err = h.availability.CheckAvailability(context.Background(), "alice", domain.Interval{Start: on(10, 0), End: on(12, 0)}, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStoreUnavailable))
}

func TestCheckAvailability_OverlapIsSymmetric(t *testing.T) {
	h := newHarness(t)
	roster := domain.AssignedStaff{domain.SlotCameraOperators: {"alice"}}
	first := h.productions.seed(confirmedOn("p1", on(10, 0), on(12, 0), roster))
	second := h.productions.seed(confirmedOn("p2", on(11, 0), on(13, 0), roster))

	result, err := h.availability.CheckAvailability(context.Background(), "alice", first.Interval(), first.ID)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "p2", result.Conflicts[0].ID)

	result, err = h.availability.CheckAvailability(context.Background(), "alice", second.Interval(), second.ID)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "p1", result.Conflicts[0].ID)
}

func TestCheckAvailability_BackToBackBookings(t *testing.T) {
	h := newHarness(t)
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

	booked := confirmedOn("p1", at(9), at(11), domain.AssignedStaff{domain.SlotCameraOperators: {"alice"}})
	booked.Date = day
	h.productions.seed(booked)

	result, err := h.availability.CheckAvailability(context.Background(), "alice", domain.Interval{Start: at(10), End: at(12)}, "")
	require.NoError(t, err)
	assert.False(t, result.Available)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "p1", result.Conflicts[0].ID)

	result, err = h.availability.CheckAvailability(context.Background(), "alice", domain.Interval{Start: at(11), End: at(12)}, "")
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Conflicts)
}
