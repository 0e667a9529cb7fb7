package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultCCPRepository struct {
	db *gorm.DB
}

func NewDefaultCCPRepository(db *gorm.DB) *DefaultCCPRepository {
	return &DefaultCCPRepository{db: db}
}

func (r *DefaultCCPRepository) CreateCCPRecord(ctx context.Context, record *domain.CCPRecord) error {
	model := mappers.ToGORMCCPRecord(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create ccp record: %w", err)
	}
	return nil
}

func (r *DefaultCCPRepository) UpdateCCPRecord(ctx context.Context, record *domain.CCPRecord) error {
	model := mappers.ToGORMCCPRecord(record)
	result := r.db.WithContext(ctx).
		Model(&models.CCPRecordModel{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"menu_item_ids": model.MenuItemIDs,
			"reason":        model.Reason,
			"resolved_by":   model.ResolvedBy,
			"resolved_at":   model.ResolvedAt,
			"metadata":      model.Metadata,
		})
	if result.Error != nil {
		return fmt.Errorf("update ccp record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, record.ID)
	}
	return nil
}

func (r *DefaultCCPRepository) DeleteCCPRecord(ctx context.Context, recordID string) error {
	result := r.db.WithContext(ctx).Where("id = ?", recordID).Delete(&models.CCPRecordModel{})
	if result.Error != nil {
		return fmt.Errorf("delete ccp record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	return nil
}

func (r *DefaultCCPRepository) GetCCPRecordByID(ctx context.Context, recordID string) (*domain.CCPRecord, error) {
	var model models.CCPRecordModel
	err := r.db.WithContext(ctx).Where("id = ?", recordID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("get ccp record: %w", err)
	}
	return mappers.ToDomainCCPRecord(&model), nil
}

func (r *DefaultCCPRepository) FilterCCPRecords(ctx context.Context, filter domain.CCPFilter) ([]*domain.CCPRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.CCPRecordModel{})

	if filter.LocationID != "" {
		query = query.Where("location_id = ?", filter.LocationID)
	}
	if filter.ActiveOnly {
		query = query.Where("resolved_at IS NULL")
	}
	if filter.MenuItemID != nil {
		query = query.Where("? = ANY(menu_item_ids)", *filter.MenuItemID)
	}
	if filter.ReportedAfter != nil {
		query = query.Where("reported_at > ?", *filter.ReportedAfter)
	}

	var recordModels []models.CCPRecordModel
	if err := query.Order("reported_at ASC").Order("id ASC").Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("filter ccp records: %w", err)
	}
	return toDomainCCPRecords(recordModels), nil
}

func (r *DefaultCCPRepository) ListCCPRecords(ctx context.Context, sortKey domain.CCPSortKey, limit int) ([]*domain.CCPRecord, error) {
	var order string
	switch sortKey {
	case domain.SortByReportedAt:
		order = "reported_at ASC"
	case domain.SortByResolvedAt:
		order = "resolved_at ASC NULLS LAST"
	default:
		return nil, fmt.Errorf("%w: sort key %q", domain.ErrInvalidInput, sortKey)
	}

	query := r.db.WithContext(ctx).Model(&models.CCPRecordModel{}).Order(order).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recordModels []models.CCPRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("list ccp records: %w", err)
	}
	return toDomainCCPRecords(recordModels), nil
}

func toDomainCCPRecords(recordModels []models.CCPRecordModel) []*domain.CCPRecord {
	records := make([]*domain.CCPRecord, len(recordModels))
	for i := range recordModels {
		records[i] = mappers.ToDomainCCPRecord(&recordModels[i])
	}
	return records
}
