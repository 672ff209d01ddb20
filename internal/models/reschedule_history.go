package models

import "time"

type RescheduleHistory struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	SessionID uint `gorm:"index;not null" json:"sessionId"`

	FromDate      string `gorm:"size:10" json:"fromDate"`
	FromStartTime string `gorm:"size:5" json:"fromStartTime"`
	ToDate        string `gorm:"size:10" json:"toDate"`
	ToStartTime   string `gorm:"size:5" json:"toStartTime"`

	ActorID uint   `json:"actorId"`
	Reason  string `gorm:"size:500" json:"reason"`

	CreatedAt time.Time `json:"createdAt"`
}

func (RescheduleHistory) TableName() string {
	return "session_reschedule_history"
}
