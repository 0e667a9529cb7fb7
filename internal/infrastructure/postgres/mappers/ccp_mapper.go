package mappers

import (
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
)

func ToGORMCCPRecord(record *domain.CCPRecord) *models.CCPRecordModel {
	return &models.CCPRecordModel{
		ID:          record.ID,
		LocationID:  record.LocationID,
		MenuItemIDs: record.MenuItemIDs,
		Reason:      record.Reason,
		ReportedBy:  record.ReportedBy,
		ReportedAt:  record.ReportedAt,
		ResolvedBy:  record.ResolvedBy,
		ResolvedAt:  record.ResolvedAt,
		Metadata:    models.StringMap(record.Metadata),
	}
}

func ToDomainCCPRecord(model *models.CCPRecordModel) *domain.CCPRecord {
	return &domain.CCPRecord{
		ID:          model.ID,
		LocationID:  model.LocationID,
		MenuItemIDs: []string(model.MenuItemIDs),
		Reason:      model.Reason,
		ReportedBy:  model.ReportedBy,
		ReportedAt:  model.ReportedAt,
		ResolvedBy:  model.ResolvedBy,
		ResolvedAt:  model.ResolvedAt,
		Metadata:    map[string]string(model.Metadata),
	}
}
