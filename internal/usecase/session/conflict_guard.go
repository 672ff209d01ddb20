package session

import (
	"context"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
)

// BookingConflictGuard checks a reschedule target against the consultant's
// active sessions.
type BookingConflictGuard struct {
	index *AvailabilityIndex
}

func NewBookingConflictGuard(index *AvailabilityIndex) *BookingConflictGuard {
	return &BookingConflictGuard{index: index}
}

// HasConflict normalizes the candidate into its slot key and reports whether
// another active session holds it. Lookup failures count as a conflict.
func (g *BookingConflictGuard) HasConflict(
	ctx context.Context,
	consultantID uint,
	date string,
	startTime string,
	excludeSessionID uint,
) (bool, error) {

	slot, err := domain.NewSlotKey(date, startTime)
	if err != nil {
		return true, httperr.ErrValidation("invalid_new_time", err.Error())
	}

	return g.HasConflictAt(ctx, consultantID, slot, excludeSessionID)
}

func (g *BookingConflictGuard) HasConflictAt(
	ctx context.Context,
	consultantID uint,
	slot domain.SlotKey,
	excludeSessionID uint,
) (bool, error) {
	return g.index.ForReschedule(ctx, consultantID, slot, excludeSessionID)
}
