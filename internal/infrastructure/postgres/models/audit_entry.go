package models

import "time"

type AuditEntryModel struct {
	ID         string `gorm:"primaryKey"`
	LocationID string `gorm:"index"`
	Action     string
	Actor      string
	RecordID   string
	Phase      string
	Reason     string
	At         time.Time `gorm:"index"`
}

func (AuditEntryModel) TableName() string {
	return "lockdown_audit_log"
}
