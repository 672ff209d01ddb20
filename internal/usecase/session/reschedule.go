package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type RescheduleInput struct {
	SessionID   uint
	RequesterID uint

	NewDate      string
	NewStartTime string
	// NewEndTime is optional; when empty the current duration is kept.
	NewEndTime string
	Reason     string
}

type RescheduleResult struct {
	Session              *models.Session
	NewDate              string
	RemainingReschedules int
}

// ======================================================
// USE CASE
// ======================================================

type RescheduleSession struct {
	repo     domain.Repository
	guard    *BookingConflictGuard
	audit    *audit.Dispatcher
	calendar Calendar
	logger   *zap.Logger
}

func NewRescheduleSession(
	repo domain.Repository,
	guard *BookingConflictGuard,
	audit *audit.Dispatcher,
	calendar Calendar,
	logger *zap.Logger,
) *RescheduleSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleSession{
		repo:     repo,
		guard:    guard,
		audit:    audit,
		calendar: calendar,
		logger:   logger,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *RescheduleSession) Execute(
	ctx context.Context,
	in RescheduleInput,
) (*RescheduleResult, error) {

	now := uc.calendar.Now()

	// --------------------------------------------------
	// 1-2 Session + participant
	// --------------------------------------------------
	s, err := loadForParticipant(ctx, uc.repo, in.SessionID, in.RequesterID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3-5 State, notice window, reschedule allowance
	// --------------------------------------------------
	if _, err := evaluateReschedule(s, now, uc.calendar); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// New slot
	// --------------------------------------------------
	target, endTime, err := uc.resolveTarget(s, in, now)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6 Conflict
	// --------------------------------------------------
	conflict, err := uc.guard.HasConflictAt(ctx, s.ConsultantID, target, s.ID)
	if err != nil {
		return nil, fmt.Errorf("check slot %s: %w", target.Key(), err)
	}
	if conflict {
		return nil, httperr.ErrConflict("slot_taken", "The consultant already has a session at the selected time.")
	}

	// --------------------------------------------------
	// Commit
	// --------------------------------------------------
	from := domain.SlotKey{Date: s.SessionDate, StartTime: s.StartTime}

	upd := domain.RescheduleUpdate{
		SessionID:     s.ID,
		ExpectedCount: s.RescheduleCount,
		Date:          target.Date,
		StartTime:     target.StartTime,
		EndTime:       endTime,
		Reason:        strings.TrimSpace(in.Reason),
		RescheduledAt: now,
		RescheduledBy: in.RequesterID,
	}
	if s.RescheduleCount == 0 {
		original := s.SessionDate
		upd.OriginalSessionDate = &original
	}

	updated, err := uc.repo.ApplyReschedule(ctx, upd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotTaken):
			return nil, httperr.ErrConflict("slot_taken", "The consultant already has a session at the selected time.")
		case errors.Is(err, domain.ErrStaleSession):
			return nil, httperr.ErrConflict("reschedule_conflict", "")
		case errors.Is(err, domain.ErrSessionNotFound):
			return nil, httperr.ErrNotFound("session_not_found")
		}
		return nil, err
	}

	// --------------------------------------------------
	// Best-effort history + audit
	// --------------------------------------------------
	uc.appendHistory(ctx, updated.ID, from, target, in.RequesterID, upd.Reason, now)

	uc.audit.Dispatch(audit.Event{
		ActorID:  &in.RequesterID,
		Action:   "session_rescheduled",
		Entity:   "session",
		EntityID: &updated.ID,
		Metadata: map[string]any{
			"from":            from.Key(),
			"to":              target.Key(),
			"rescheduleCount": updated.RescheduleCount,
		},
	})

	return &RescheduleResult{
		Session:              updated,
		NewDate:              updated.SessionDate,
		RemainingReschedules: domain.RemainingReschedules(updated.RescheduleCount),
	}, nil
}

func (uc *RescheduleSession) resolveTarget(
	s *models.Session,
	in RescheduleInput,
	now time.Time,
) (domain.SlotKey, string, error) {

	target, err := domain.NewSlotKey(in.NewDate, in.NewStartTime)
	if err != nil {
		return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", err.Error())
	}

	start, err := target.In(uc.calendar.Location)
	if err != nil {
		return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", err.Error())
	}
	if !start.After(now) {
		return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", "The new time must be in the future.")
	}

	current, err := domain.NewSlotKey(s.SessionDate, s.StartTime)
	if err == nil && current == target {
		return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", "The new time is the same as the current one.")
	}

	var endTime string
	if strings.TrimSpace(in.NewEndTime) != "" {
		endTime, err = domain.NormalizeClock(in.NewEndTime)
		if err != nil {
			return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", err.Error())
		}
		if endTime == target.StartTime {
			return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", "The end time must be after the start time.")
		}
		// an end at or before the start runs past midnight
		w, err := domain.NewWindow(target.Date, target.StartTime, endTime, uc.calendar.Location)
		if err != nil {
			return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", err.Error())
		}
		if w.Duration() > domain.MaxSessionDuration {
			return domain.SlotKey{}, "", httperr.ErrValidation("invalid_new_time", "A session cannot last longer than 12 hours.")
		}
	} else {
		w, err := uc.calendar.Window(s)
		if err != nil {
			return domain.SlotKey{}, "", err
		}
		endTime = start.Add(w.Duration()).Format(timezone.ClockLayout)
	}

	return target, endTime, nil
}

func (uc *RescheduleSession) appendHistory(
	ctx context.Context,
	sessionID uint,
	from domain.SlotKey,
	to domain.SlotKey,
	actorID uint,
	reason string,
	at time.Time,
) {
	h := &models.RescheduleHistory{
		SessionID:     sessionID,
		FromDate:      from.Date,
		FromStartTime: from.StartTime,
		ToDate:        to.Date,
		ToStartTime:   to.StartTime,
		ActorID:       actorID,
		Reason:        reason,
		CreatedAt:     at,
	}

	if err := uc.repo.AppendRescheduleHistory(ctx, h); err != nil {
		uc.logger.Warn("reschedule history append failed",
			zap.Uint("session_id", sessionID),
			zap.Error(err))
	}
}

// ======================================================
// ELIGIBILITY
// ======================================================

type RescheduleEligibility struct {
	CanReschedule        bool   `json:"canReschedule"`
	HoursRemaining       int    `json:"hoursRemaining"`
	RescheduleCount      int    `json:"rescheduleCount"`
	RemainingReschedules int    `json:"remainingReschedules"`
	ErrorCode            string `json:"errorCode,omitempty"`
	Reason               string `json:"reason,omitempty"`
}

type GetRescheduleEligibility struct {
	repo     domain.Repository
	calendar Calendar
}

func NewGetRescheduleEligibility(
	repo domain.Repository,
	calendar Calendar,
) *GetRescheduleEligibility {
	return &GetRescheduleEligibility{
		repo:     repo,
		calendar: calendar,
	}
}

func (uc *GetRescheduleEligibility) Execute(
	ctx context.Context,
	sessionID uint,
	requesterID uint,
) (*RescheduleEligibility, error) {

	s, err := loadForParticipant(ctx, uc.repo, sessionID, requesterID)
	if err != nil {
		return nil, err
	}

	hours, err := evaluateReschedule(s, uc.calendar.Now(), uc.calendar)

	out := &RescheduleEligibility{
		CanReschedule:        err == nil,
		HoursRemaining:       displayHours(hours),
		RescheduleCount:      s.RescheduleCount,
		RemainingReschedules: domain.RemainingReschedules(s.RescheduleCount),
	}

	if err != nil {
		be, ok := httperr.AsBusiness(err)
		if !ok {
			return nil, err
		}
		out.ErrorCode = be.Code
		out.Reason = be.Message
	}

	return out, nil
}

// ======================================================
// RULES
// ======================================================

// evaluateReschedule applies the state, notice-window and allowance rules in
// that order. It returns the unrounded hours until the current start.
func evaluateReschedule(s *models.Session, now time.Time, calendar Calendar) (float64, error) {

	if err := domain.CanReschedule(domain.Status(s.Status)); err != nil {
		return 0, err
	}

	w, err := calendar.Window(s)
	if err != nil {
		return 0, err
	}

	hours := w.Start.Sub(now).Hours()

	if hours < domain.RescheduleNoticeWindow.Hours() {
		rounded := displayHours(hours)
		return hours, httperr.ErrPolicy(
			"reschedule_window_closed",
			fmt.Sprintf(
				"Sessions can only be rescheduled at least %d hours in advance. Your session starts in %d hours.",
				int(domain.RescheduleNoticeWindow.Hours()), rounded,
			),
			map[string]any{
				"canReschedule":  false,
				"hoursRemaining": rounded,
			},
		)
	}

	if s.RescheduleCount >= domain.MaxReschedules {
		return hours, httperr.ErrPolicy(
			"max_reschedules_reached",
			fmt.Sprintf("This session has already been rescheduled %d times.", s.RescheduleCount),
			map[string]any{
				"canReschedule":   false,
				"rescheduleCount": s.RescheduleCount,
			},
		)
	}

	return hours, nil
}

func displayHours(hours float64) int {
	if hours <= 0 {
		return 0
	}
	return int(math.Round(hours))
}

// loadForParticipant fetches the session and rejects anyone who is neither its
// client nor its consultant.
func loadForParticipant(
	ctx context.Context,
	repo domain.Repository,
	sessionID uint,
	userID uint,
) (*models.Session, error) {

	s, err := repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, httperr.ErrNotFound("session_not_found")
		}
		return nil, err
	}

	if !s.IsParticipant(userID) {
		return nil, httperr.ErrForbidden("not_a_participant")
	}

	return s, nil
}
