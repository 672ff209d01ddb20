package session

import (
	"time"
	"unicode/utf8"

	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

const (
	MaxReminderMinutes   = 7 * 24 * 60
	MaxReminderMessage   = 500
	MaxRemindersPerVisit = 10
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// ValidateReminder checks a single reminder rule.
func ValidateReminder(channel string, minutes int, message string) error {
	if !Channel(channel).Valid() {
		return httperr.ErrValidation("invalid_reminder", "Channel must be one of email, sms, push.")
	}
	if minutes < 1 || minutes > MaxReminderMinutes {
		return httperr.ErrValidation("invalid_reminder", "Reminder timing must be between 1 minute and 7 days.")
	}
	if utf8.RuneCountInString(message) > MaxReminderMessage {
		return httperr.ErrValidation("invalid_reminder", "Reminder message is too long.")
	}
	return nil
}

// ReminderDueAt is the instant a reminder should be dispatched.
func ReminderDueAt(sessionStart time.Time, minutesBefore int) time.Time {
	return sessionStart.Add(-time.Duration(minutesBefore) * time.Minute)
}
