package models

import "time"

type SessionReminder struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SessionID uint    `gorm:"index:idx_reminders_session_user;not null" json:"sessionId"`
	Session   Session `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint    `gorm:"index:idx_reminders_session_user;not null" json:"userId"`

	Channel       string `gorm:"size:10;not null" json:"channel"`
	TimingMinutes int    `gorm:"not null" json:"timingMinutes"`
	Message       string `gorm:"size:500" json:"message"`

	IsSent bool       `gorm:"default:false;index" json:"isSent"`
	SentAt *time.Time `json:"sentAt"`

	CreatedAt time.Time `json:"createdAt"`
}
