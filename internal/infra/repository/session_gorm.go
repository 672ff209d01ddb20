package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

const pgUniqueViolation = "23505"

type SessionGormRepository struct {
	db *gorm.DB
}

func NewSessionGormRepository(db *gorm.DB) *SessionGormRepository {
	return &SessionGormRepository{db: db}
}

// --------------------------------------------------
// Session
// --------------------------------------------------

func (r *SessionGormRepository) GetSession(
	ctx context.Context,
	id uint,
) (*models.Session, error) {

	var s models.Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &s, nil
}

func (r *SessionGormRepository) CountActiveAtSlot(
	ctx context.Context,
	consultantID uint,
	slot domain.SlotKey,
	excludeSessionID uint,
) (int64, error) {

	q := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where(
			"consultant_id = ? AND session_date = ? AND start_time = ? AND status IN ?",
			consultantID, slot.Date, slot.StartTime, domain.ActiveStatuses,
		)

	if excludeSessionID != 0 {
		q = q.Where("id <> ?", excludeSessionID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active sessions at %s: %w", slot.Key(), err)
	}
	return count, nil
}

func (r *SessionGormRepository) ListActiveSessionsForDay(
	ctx context.Context,
	consultantID uint,
	date string,
) ([]models.Session, error) {

	var sessions []models.Session
	if err := r.db.WithContext(ctx).
		Select("id", "session_date", "start_time", "end_time", "status").
		Where(
			"consultant_id = ? AND session_date = ? AND status IN ?",
			consultantID, date, domain.ActiveStatuses,
		).
		Order("start_time ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", date, err)
	}
	return sessions, nil
}

func (r *SessionGormRepository) ApplyReschedule(
	ctx context.Context,
	upd domain.RescheduleUpdate,
) (*models.Session, error) {

	var updated models.Session

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var current models.Session
		if err := tx.Select("id", "consultant_id").First(&current, upd.SessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return err
		}

		// re-check the target slot under lock right before the write
		var holders []models.Session
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where(
				"consultant_id = ? AND session_date = ? AND start_time = ? AND status IN ? AND id <> ?",
				current.ConsultantID, upd.Date, upd.StartTime, domain.ActiveStatuses, upd.SessionID,
			).
			Find(&holders).Error; err != nil {
			return err
		}
		if len(holders) > 0 {
			return domain.ErrSlotTaken
		}

		fields := map[string]any{
			"session_date":      upd.Date,
			"start_time":        upd.StartTime,
			"end_time":          upd.EndTime,
			"reschedule_count":  gorm.Expr("reschedule_count + 1"),
			"reschedule_reason": upd.Reason,
			"rescheduled_at":    upd.RescheduledAt,
			"rescheduled_by":    upd.RescheduledBy,
			"updated_at":        upd.RescheduledAt,
		}
		if upd.OriginalSessionDate != nil {
			fields["original_session_date"] = *upd.OriginalSessionDate
		}

		res := tx.Model(&models.Session{}).
			Where(
				"id = ? AND reschedule_count = ? AND status IN ?",
				upd.SessionID, upd.ExpectedCount, domain.ActiveStatuses,
			).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleSession
		}

		return tx.First(&updated, upd.SessionID).Error
	})

	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlotTaken
		}
		if errors.Is(err, domain.ErrSlotTaken) ||
			errors.Is(err, domain.ErrStaleSession) ||
			errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("apply reschedule for session %d: %w", upd.SessionID, err)
	}

	return &updated, nil
}

func (r *SessionGormRepository) AppendRescheduleHistory(
	ctx context.Context,
	h *models.RescheduleHistory,
) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *SessionGormRepository) ListRescheduleHistory(
	ctx context.Context,
	sessionID uint,
) ([]models.RescheduleHistory, error) {

	var history []models.RescheduleHistory
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		return nil, err
	}
	return history, nil
}

// --------------------------------------------------
// Video
// --------------------------------------------------

func (r *SessionGormRepository) SetRoomIfAbsent(
	ctx context.Context,
	sessionID uint,
	room domain.Room,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND (daily_room_url IS NULL OR daily_room_url = '')", sessionID).
		Updates(map[string]any{
			"daily_room_name": room.Name,
			"daily_room_url":  room.URL,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionGormRepository) SaveConsultantToken(
	ctx context.Context,
	sessionID uint,
	token string,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("daily_meeting_token", token).Error
}

func (r *SessionGormRepository) MarkMeetingStarted(
	ctx context.Context,
	sessionID uint,
	at time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND meeting_started_at IS NULL", sessionID).
		Update("meeting_started_at", at).Error
}

func (r *SessionGormRepository) MarkMeetingEnded(
	ctx context.Context,
	sessionID uint,
	at time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND meeting_ended_at IS NULL", sessionID).
		Update("meeting_ended_at", at).Error
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *SessionGormRepository) ListTimeSlots(
	ctx context.Context,
	consultantID uint,
	date string,
) ([]models.TimeSlot, error) {

	var slots []models.TimeSlot
	if err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND date = ?", consultantID, date).
		Order("start_time ASC").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// --------------------------------------------------
// Reminders
// --------------------------------------------------

func (r *SessionGormRepository) ReplaceReminders(
	ctx context.Context,
	sessionID uint,
	userID uint,
	reminders []models.SessionReminder,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("session_id = ? AND user_id = ?", sessionID, userID).
			Delete(&models.SessionReminder{}).Error; err != nil {
			return err
		}

		if len(reminders) == 0 {
			return nil
		}

		return tx.Omit("Session").Create(&reminders).Error
	})
}

func (r *SessionGormRepository) ListReminders(
	ctx context.Context,
	sessionID uint,
	userID uint,
) ([]models.SessionReminder, error) {

	var reminders []models.SessionReminder
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("timing_minutes DESC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *SessionGormRepository) ListPendingReminders(
	ctx context.Context,
) ([]models.SessionReminder, error) {

	var reminders []models.SessionReminder
	if err := r.db.WithContext(ctx).
		Joins(
			"JOIN sessions ON sessions.id = session_reminders.session_id AND sessions.status IN ?",
			domain.ActiveStatuses,
		).
		Preload("Session").
		Where("session_reminders.is_sent = ?", false).
		Order("session_reminders.id ASC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *SessionGormRepository) MarkReminderSent(
	ctx context.Context,
	reminderID uint,
	at time.Time,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.SessionReminder{}).
		Where("id = ? AND is_sent = ?", reminderID, false).
		Updates(map[string]any{"is_sent": true, "sent_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SessionReminder{}).
		Where("id = ?", reminderID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Compile-time check
var _ domain.Repository = (*SessionGormRepository)(nil)
