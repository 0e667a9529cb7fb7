package models

import "time"

type DayPhaseModel struct {
	LocationID   string `gorm:"primaryKey"`
	BusinessDate string `gorm:"primaryKey"`
	Phase        string `gorm:"not null"`
	UpdatedBy    string
	UpdatedAt    time.Time
}

func (DayPhaseModel) TableName() string {
	return "day_phases"
}
