package mappers

import (
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
)

func ToGORMAuditEntry(entry *domain.AuditEntry) *models.AuditEntryModel {
	return &models.AuditEntryModel{
		ID:         entry.ID,
		LocationID: entry.LocationID,
		Action:     string(entry.Action),
		Actor:      entry.Actor,
		RecordID:   entry.RecordID,
		Phase:      string(entry.Phase),
		Reason:     entry.Reason,
		At:         entry.At,
	}
}
