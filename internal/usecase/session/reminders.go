package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

type ReminderInput struct {
	Channel       string `json:"channel"`
	TimingMinutes int    `json:"timingMinutes"`
	Message       string `json:"message"`
}

type DueReminder struct {
	Reminder     models.SessionReminder `json:"reminder"`
	DueAt        time.Time              `json:"dueAt"`
	SessionStart time.Time              `json:"sessionStart"`
}

// ReminderScheduler stores per-participant reminder rules and hands due
// reminders to the external dispatcher.
type ReminderScheduler struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	calendar Calendar
	logger   *zap.Logger
}

func NewReminderScheduler(
	repo domain.Repository,
	audit *audit.Dispatcher,
	calendar Calendar,
	logger *zap.Logger,
) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		repo:     repo,
		audit:    audit,
		calendar: calendar,
		logger:   logger,
	}
}

func (rs *ReminderScheduler) Now() time.Time {
	return rs.calendar.Now()
}

// SetReminders replaces every reminder the user holds for the session. An
// empty list clears them.
func (rs *ReminderScheduler) SetReminders(
	ctx context.Context,
	sessionID uint,
	userID uint,
	in []ReminderInput,
) ([]models.SessionReminder, error) {

	if _, err := loadForParticipant(ctx, rs.repo, sessionID, userID); err != nil {
		return nil, err
	}

	if len(in) > domain.MaxRemindersPerVisit {
		return nil, httperr.ErrValidation("too_many_reminders", "A session can hold at most 10 reminders per participant.")
	}

	reminders := make([]models.SessionReminder, 0, len(in))
	for _, r := range in {
		channel := strings.ToLower(strings.TrimSpace(r.Channel))
		message := strings.TrimSpace(r.Message)

		if err := domain.ValidateReminder(channel, r.TimingMinutes, message); err != nil {
			return nil, err
		}

		reminders = append(reminders, models.SessionReminder{
			SessionID:     sessionID,
			UserID:        userID,
			Channel:       channel,
			TimingMinutes: r.TimingMinutes,
			Message:       message,
			CreatedAt:     rs.calendar.Now(),
		})
	}

	if err := rs.repo.ReplaceReminders(ctx, sessionID, userID, reminders); err != nil {
		return nil, err
	}

	rs.audit.Dispatch(audit.Event{
		ActorID:  &userID,
		Action:   "reminders_updated",
		Entity:   "session",
		EntityID: &sessionID,
		Metadata: map[string]any{"count": len(reminders)},
	})

	return reminders, nil
}

func (rs *ReminderScheduler) ListReminders(
	ctx context.Context,
	sessionID uint,
	userID uint,
) ([]models.SessionReminder, error) {

	if _, err := loadForParticipant(ctx, rs.repo, sessionID, userID); err != nil {
		return nil, err
	}

	reminders, err := rs.repo.ListReminders(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if reminders == nil {
		reminders = []models.SessionReminder{}
	}
	return reminders, nil
}

// DueReminders returns unsent reminders whose dispatch time has passed, oldest
// first. Reminders of sessions that already ended are left out. limit <= 0
// means no limit.
func (rs *ReminderScheduler) DueReminders(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]DueReminder, error) {

	pending, err := rs.repo.ListPendingReminders(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]DueReminder, 0, len(pending))
	for _, r := range pending {
		s := r.Session
		w, err := rs.calendar.Window(&s)
		if err != nil {
			rs.logger.Warn("skipping reminder of unschedulable session",
				zap.Uint("reminder_id", r.ID),
				zap.Uint("session_id", r.SessionID),
				zap.Error(err))
			continue
		}
		if !now.Before(w.End) {
			continue
		}

		at := domain.ReminderDueAt(w.Start, r.TimingMinutes)
		if at.After(now) {
			continue
		}

		due = append(due, DueReminder{
			Reminder:     r,
			DueAt:        at,
			SessionStart: w.Start,
		})
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].DueAt.Before(due[j].DueAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// MarkSent is idempotent; marking an already sent reminder keeps its first SentAt.
func (rs *ReminderScheduler) MarkSent(
	ctx context.Context,
	reminderID uint,
	now time.Time,
) error {

	if err := rs.repo.MarkReminderSent(ctx, reminderID, now); err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			return httperr.ErrNotFound("reminder_not_found")
		}
		return err
	}
	return nil
}
