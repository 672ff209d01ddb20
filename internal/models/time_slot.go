package models

import "time"

type TimeSlot struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	ConsultantID uint `gorm:"index:idx_time_slots_consultant_date;not null" json:"consultantId"`

	Date      string `gorm:"size:10;index:idx_time_slots_consultant_date;not null" json:"date"`
	StartTime string `gorm:"size:5;not null" json:"startTime"`
	EndTime   string `gorm:"size:5;not null" json:"endTime"`

	IsAvailable bool `gorm:"default:true" json:"isAvailable"`
	IsBooked    bool `gorm:"default:false" json:"isBooked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
