package models

import "time"

type Session struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID     uint `gorm:"index;not null" json:"clientId"`
	ConsultantID uint `gorm:"index;not null" json:"consultantId"`

	SessionDate         string  `gorm:"size:10;not null" json:"sessionDate"`
	StartTime           string  `gorm:"size:5;not null" json:"startTime"`
	EndTime             string  `gorm:"size:5;not null" json:"endTime"`
	OriginalSessionDate *string `gorm:"size:10" json:"originalSessionDate"`

	Status string `gorm:"size:20;default:'pending';index" json:"status"`

	RescheduleCount  int        `gorm:"default:0;not null" json:"rescheduleCount"`
	RescheduleReason string     `gorm:"size:500" json:"rescheduleReason"`
	RescheduledAt    *time.Time `json:"rescheduledAt"`
	RescheduledBy    *uint      `json:"rescheduledBy"`

	DailyRoomName     string     `gorm:"size:100" json:"dailyRoomName"`
	DailyRoomURL      string     `gorm:"size:255" json:"dailyRoomUrl"`
	DailyMeetingToken string     `gorm:"type:text" json:"-"`
	MeetingStartedAt  *time.Time `json:"meetingStartedAt"`
	MeetingEndedAt    *time.Time `json:"meetingEndedAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsParticipant reports whether userID is the client or the consultant of the session.
func (s *Session) IsParticipant(userID uint) bool {
	return userID != 0 && (userID == s.ClientID || userID == s.ConsultantID)
}
