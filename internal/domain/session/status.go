package session

import "github.com/BruksfildServices01/coaching-sessions/internal/httperr"

// ===============================
// Session Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that occupy a consultant's slot.
var ActiveStatuses = []string{string(StatusPending), string(StatusConfirmed)}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ===============================
// Validations
// ===============================

// CanReschedule rejects sessions whose scheduling fields are frozen.
func CanReschedule(current Status) error {
	switch current {
	case StatusCancelled:
		return httperr.ErrInvalidState("session_cancelled", "Cancelled sessions cannot be rescheduled.")
	case StatusCompleted:
		return httperr.ErrInvalidState("session_completed", "Completed sessions cannot be rescheduled.")
	}
	return nil
}

// CanJoin rejects sessions that can no longer host a meeting.
func CanJoin(current Status) error {
	switch current {
	case StatusCancelled:
		return httperr.ErrInvalidState("session_cancelled", "This session was cancelled.")
	case StatusCompleted:
		return httperr.ErrInvalidState("session_completed", "This session is already completed.")
	}
	return nil
}
