package session

import (
	"context"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

// AvailabilityIndex answers whether a consultant slot is free.
type AvailabilityIndex struct {
	repo     domain.Repository
	calendar Calendar
	logger   *zap.Logger
}

func NewAvailabilityIndex(
	repo domain.Repository,
	calendar Calendar,
	logger *zap.Logger,
) *AvailabilityIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityIndex{
		repo:     repo,
		calendar: calendar,
		logger:   logger,
	}
}

// IsSlotOccupied reports whether an active session of the consultant starts at
// exactly (date, startTime). excludeSessionID is ignored when it matches, so a
// session never conflicts with itself.
func (ix *AvailabilityIndex) IsSlotOccupied(
	ctx context.Context,
	consultantID uint,
	date string,
	startTime string,
	excludeSessionID uint,
) (bool, error) {

	slot, err := domain.NewSlotKey(date, startTime)
	if err != nil {
		return false, httperr.ErrValidation("invalid_slot", err.Error())
	}

	return ix.occupied(ctx, consultantID, slot, excludeSessionID)
}

func (ix *AvailabilityIndex) occupied(
	ctx context.Context,
	consultantID uint,
	slot domain.SlotKey,
	excludeSessionID uint,
) (bool, error) {

	count, err := ix.repo.CountActiveAtSlot(ctx, consultantID, slot, excludeSessionID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ForReschedule fails closed: when the store cannot be read the slot is
// reported occupied along with the error.
func (ix *AvailabilityIndex) ForReschedule(
	ctx context.Context,
	consultantID uint,
	slot domain.SlotKey,
	excludeSessionID uint,
) (bool, error) {

	occupied, err := ix.occupied(ctx, consultantID, slot, excludeSessionID)
	if err != nil {
		ix.logger.Error("slot lookup failed, treating slot as unavailable",
			zap.Uint("consultant_id", consultantID),
			zap.String("slot", slot.Key()),
			zap.Error(err))
		return true, err
	}
	return occupied, nil
}

// OpenSlots lists the consultant's offered slots on date that are still
// bookable. If active sessions cannot be read the offered slots are returned
// unfiltered and a warning is logged.
func (ix *AvailabilityIndex) OpenSlots(
	ctx context.Context,
	consultantID uint,
	date string,
) ([]models.TimeSlot, error) {

	if _, err := domain.NewSlotKey(date, "00:00"); err != nil {
		return nil, httperr.ErrValidation("invalid_date", err.Error())
	}

	slots, err := ix.repo.ListTimeSlots(ctx, consultantID, date)
	if err != nil {
		return nil, err
	}

	now := ix.calendar.Now()

	offered := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsAvailable || slot.IsBooked {
			continue
		}

		key, err := domain.NewSlotKey(slot.Date, slot.StartTime)
		if err != nil {
			ix.logger.Warn("skipping malformed time slot", zap.Uint("slot_id", slot.ID), zap.Error(err))
			continue
		}
		if start, err := key.In(ix.calendar.Location); err == nil && !start.After(now) {
			continue
		}

		slot.StartTime = key.StartTime
		offered = append(offered, slot)
	}

	sessions, err := ix.repo.ListActiveSessionsForDay(ctx, consultantID, date)
	if err != nil {
		ix.logger.Warn("could not load sessions for availability, returning unfiltered slots",
			zap.Uint("consultant_id", consultantID),
			zap.String("date", date),
			zap.Error(err))
		return offered, nil
	}

	taken := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if key, err := domain.NewSlotKey(s.SessionDate, s.StartTime); err == nil {
			taken[key.Key()] = struct{}{}
		}
	}

	open := offered[:0]
	for _, slot := range offered {
		if _, ok := taken[slot.Date+"T"+slot.StartTime]; ok {
			continue
		}
		open = append(open, slot)
	}

	return open, nil
}
