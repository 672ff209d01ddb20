package session

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrSlotTaken is returned when the store rejects a write because another
	// active session already holds the slot.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrStaleSession is returned when a conditional update finds the session
	// changed since it was read.
	ErrStaleSession = errors.New("session changed concurrently")
)

// RescheduleUpdate carries the fields written by a successful reschedule.
type RescheduleUpdate struct {
	SessionID           uint
	ExpectedCount       int
	Date                string
	StartTime           string
	EndTime             string
	OriginalSessionDate *string
	Reason              string
	RescheduledAt       time.Time
	RescheduledBy       uint
}

type Repository interface {
	// -------- Session --------
	GetSession(
		ctx context.Context,
		id uint,
	) (*models.Session, error)

	CountActiveAtSlot(
		ctx context.Context,
		consultantID uint,
		slot SlotKey,
		excludeSessionID uint,
	) (int64, error)

	ListActiveSessionsForDay(
		ctx context.Context,
		consultantID uint,
		date string,
	) ([]models.Session, error)

	// ApplyReschedule writes the update only if the session is still active and
	// its reschedule count equals ExpectedCount.
	ApplyReschedule(
		ctx context.Context,
		upd RescheduleUpdate,
	) (*models.Session, error)

	AppendRescheduleHistory(
		ctx context.Context,
		h *models.RescheduleHistory,
	) error

	ListRescheduleHistory(
		ctx context.Context,
		sessionID uint,
	) ([]models.RescheduleHistory, error)

	// -------- Video --------

	// SetRoomIfAbsent stores the room only when none is recorded yet. It
	// reports whether this call wrote it.
	SetRoomIfAbsent(
		ctx context.Context,
		sessionID uint,
		room Room,
	) (bool, error)

	SaveConsultantToken(
		ctx context.Context,
		sessionID uint,
		token string,
	) error

	MarkMeetingStarted(
		ctx context.Context,
		sessionID uint,
		at time.Time,
	) error

	MarkMeetingEnded(
		ctx context.Context,
		sessionID uint,
		at time.Time,
	) error

	// -------- Availability --------
	ListTimeSlots(
		ctx context.Context,
		consultantID uint,
		date string,
	) ([]models.TimeSlot, error)

	// -------- Reminders --------
	ReplaceReminders(
		ctx context.Context,
		sessionID uint,
		userID uint,
		reminders []models.SessionReminder,
	) error

	ListReminders(
		ctx context.Context,
		sessionID uint,
		userID uint,
	) ([]models.SessionReminder, error)

	// ListPendingReminders returns unsent reminders of active sessions with
	// their Session loaded.
	ListPendingReminders(
		ctx context.Context,
	) ([]models.SessionReminder, error)

	MarkReminderSent(
		ctx context.Context,
		reminderID uint,
		at time.Time,
	) error
}
