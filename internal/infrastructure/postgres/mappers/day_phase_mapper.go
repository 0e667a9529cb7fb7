package mappers

import (
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
)

func ToGORMDayPhase(record *domain.DayPhaseRecord) *models.DayPhaseModel {
	return &models.DayPhaseModel{
		LocationID:   record.LocationID,
		BusinessDate: record.BusinessDate,
		Phase:        string(record.Phase),
		UpdatedBy:    record.UpdatedBy,
		UpdatedAt:    record.UpdatedAt,
	}
}

func ToDomainDayPhase(model *models.DayPhaseModel) *domain.DayPhaseRecord {
	return &domain.DayPhaseRecord{
		LocationID:   model.LocationID,
		BusinessDate: model.BusinessDate,
		Phase:        domain.DayPhase(model.Phase),
		UpdatedBy:    model.UpdatedBy,
		UpdatedAt:    model.UpdatedAt,
	}
}
