package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

func TestIsSlotOccupied(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	s := seedSession(repo, "2025-03-15", "11:00", "12:00", "confirmed", 0)
	seedSession(repo, "2025-03-15", "13:00", "14:00", "cancelled", 0)

	ix := NewAvailabilityIndex(repo, fixedCalendar(fixedNow), nil)

	occupied, err := ix.IsSlotOccupied(ctx, consultantID, "2025-03-15", "11:00", 0)
	require.NoError(t, err)
	assert.True(t, occupied)

	occupied, err = ix.IsSlotOccupied(ctx, consultantID, "2025-03-15", "11:00:00", 0)
	require.NoError(t, err)
	assert.True(t, occupied)

	occupied, err = ix.IsSlotOccupied(ctx, consultantID, "2025-03-15", "11:00", s.ID)
	require.NoError(t, err)
	assert.False(t, occupied)

	occupied, err = ix.IsSlotOccupied(ctx, consultantID, "2025-03-15", "13:00", 0)
	require.NoError(t, err)
	assert.False(t, occupied)

	occupied, err = ix.IsSlotOccupied(ctx, consultantID+1, "2025-03-15", "11:00", 0)
	require.NoError(t, err)
	assert.False(t, occupied)

	_, err = ix.IsSlotOccupied(ctx, consultantID, "15/03/2025", "11:00", 0)
	requireKind(t, err, httperr.KindValidation, "invalid_slot")
}

func TestConflictGuardFailsClosed(t *testing.T) {
	ctx := context.Background()
	repo := &faultyRepo{Repository: newRepo(t), failCount: true}
	guard := NewBookingConflictGuard(NewAvailabilityIndex(repo, fixedCalendar(fixedNow), nil))

	conflict, err := guard.HasConflict(ctx, consultantID, "2025-03-15", "11:00", 0)
	assert.Error(t, err)
	assert.True(t, conflict)
}

func TestOpenSlots(t *testing.T) {
	ctx := context.Background()
	mem := newRepo(t)

	for _, slot := range []models.TimeSlot{
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "08:00", EndTime: "09:00", IsAvailable: true},
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "10:00", EndTime: "11:00", IsAvailable: true},
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "11:00", EndTime: "12:00", IsAvailable: true},
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "12:00", EndTime: "13:00", IsAvailable: true, IsBooked: true},
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "13:00", EndTime: "14:00", IsAvailable: false},
		{ConsultantID: consultantID, Date: "2025-03-10", StartTime: "14:00", EndTime: "15:00", IsAvailable: true},
	} {
		mem.AddTimeSlot(slot)
	}
	seedSession(mem, "2025-03-10", "11:00", "12:00", "pending", 0)
	seedSession(mem, "2025-03-10", "14:00", "15:00", "cancelled", 0)

	ix := NewAvailabilityIndex(mem, fixedCalendar(fixedNow), nil)

	open, err := ix.OpenSlots(ctx, consultantID, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "10:00", open[0].StartTime)
	assert.Equal(t, "14:00", open[1].StartTime)

	// the session lookup failing leaves offered slots unfiltered
	ix = NewAvailabilityIndex(&faultyRepo{Repository: mem, failDay: true}, fixedCalendar(fixedNow), nil)
	open, err = ix.OpenSlots(ctx, consultantID, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, open, 3)

	_, err = ix.OpenSlots(ctx, consultantID, "tomorrow")
	requireKind(t, err, httperr.KindValidation, "invalid_date")
}
