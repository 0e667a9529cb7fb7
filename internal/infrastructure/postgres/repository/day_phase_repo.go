package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultDayPhaseRepository struct {
	db *gorm.DB
}

func NewDefaultDayPhaseRepository(db *gorm.DB) *DefaultDayPhaseRepository {
	return &DefaultDayPhaseRepository{db: db}
}

func (r *DefaultDayPhaseRepository) GetDayPhase(ctx context.Context, locationID, businessDate string) (*domain.DayPhaseRecord, error) {
	var model models.DayPhaseModel
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND business_date = ?", locationID, businessDate).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: day phase %s %s", domain.ErrNotFound, locationID, businessDate)
	}
	if err != nil {
		return nil, fmt.Errorf("get day phase: %w", err)
	}
	return mappers.ToDomainDayPhase(&model), nil
}

func (r *DefaultDayPhaseRepository) SaveDayPhase(ctx context.Context, record *domain.DayPhaseRecord) error {
	model := mappers.ToGORMDayPhase(record)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "business_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"phase", "updated_by", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("save day phase: %w", err)
	}
	return nil
}
