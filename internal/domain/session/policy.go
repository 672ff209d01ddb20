package session

import "time"

const (
	// RescheduleNoticeWindow is the minimum time between now and the current
	// session start for a reschedule to be accepted.
	RescheduleNoticeWindow = 24 * time.Hour

	MaxReschedules = 2

	MaxSessionDuration = 12 * time.Hour

	// JoinWindowLead is how long before the start participants may enter the room.
	JoinWindowLead = 15 * time.Minute

	TokenTTL = 2 * time.Hour

	// TokenRefreshMargin keeps a cached token from being handed out right before it expires.
	TokenRefreshMargin = 5 * time.Minute

	// RoomExpiryGrace keeps a provider room alive for a while after the scheduled end.
	RoomExpiryGrace = time.Hour
)

// RemainingReschedules never goes below zero.
func RemainingReschedules(count int) int {
	if count >= MaxReschedules {
		return 0
	}
	if count < 0 {
		return MaxReschedules
	}
	return MaxReschedules - count
}
