package models

import (
	"time"

	"github.com/lib/pq"
)

type CCPRecordModel struct {
	ID          string         `gorm:"primaryKey"`
	LocationID  string         `gorm:"index;not null"`
	MenuItemIDs pq.StringArray `gorm:"type:text[];not null"`
	Reason      string         `gorm:"not null"`
	ReportedBy  string
	ReportedAt  time.Time `gorm:"index;not null"`
	ResolvedBy  string
	ResolvedAt  *time.Time `gorm:"index"`
	Metadata    StringMap  `gorm:"type:jsonb"`
}

func (CCPRecordModel) TableName() string {
	return "ccp_records"
}
