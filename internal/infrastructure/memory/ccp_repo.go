package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
)

// CCPRepository is the process-local CCP store used when no database is configured.
type CCPRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.CCPRecord
}

func NewCCPRepository() *CCPRepository {
	return &CCPRepository{
		records: make(map[string]*domain.CCPRecord),
	}
}

func (r *CCPRepository) CreateCCPRecord(_ context.Context, record *domain.CCPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; ok {
		return fmt.Errorf("ccp record %s already exists", record.ID)
	}
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *CCPRepository) UpdateCCPRecord(_ context.Context, record *domain.CCPRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; !ok {
		return fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, record.ID)
	}
	r.records[record.ID] = record.Clone()
	return nil
}

func (r *CCPRepository) DeleteCCPRecord(_ context.Context, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[recordID]; !ok {
		return fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	delete(r.records, recordID)
	return nil
}

func (r *CCPRepository) GetCCPRecordByID(_ context.Context, recordID string) (*domain.CCPRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[recordID]
	if !ok {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	return record.Clone(), nil
}

func (r *CCPRepository) FilterCCPRecords(_ context.Context, filter domain.CCPFilter) ([]*domain.CCPRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.CCPRecord
	for _, record := range r.records {
		if filter.LocationID != "" && record.LocationID != filter.LocationID {
			continue
		}
		if filter.ActiveOnly && !record.IsActive() {
			continue
		}
		if filter.MenuItemID != nil && !slices.Contains(record.MenuItemIDs, *filter.MenuItemID) {
			continue
		}
		if filter.ReportedAfter != nil && !record.ReportedAt.After(*filter.ReportedAfter) {
			continue
		}
		out = append(out, record.Clone())
	}
	sortRecords(out, domain.SortByReportedAt)
	return out, nil
}

func (r *CCPRepository) ListCCPRecords(_ context.Context, sortKey domain.CCPSortKey, limit int) ([]*domain.CCPRecord, error) {
	if sortKey != domain.SortByReportedAt && sortKey != domain.SortByResolvedAt {
		return nil, fmt.Errorf("%w: sort key %q", domain.ErrInvalidInput, sortKey)
	}

	r.mu.RLock()
	out := make([]*domain.CCPRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record.Clone())
	}
	r.mu.RUnlock()

	sortRecords(out, sortKey)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sortRecords orders ascending; unresolved records sort last by resolved_at.
func sortRecords(records []*domain.CCPRecord, sortKey domain.CCPSortKey) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if sortKey == domain.SortByResolvedAt {
			switch {
			case a.ResolvedAt == nil && b.ResolvedAt == nil:
			case a.ResolvedAt == nil:
				return false
			case b.ResolvedAt == nil:
				return true
			case !a.ResolvedAt.Equal(*b.ResolvedAt):
				return a.ResolvedAt.Before(*b.ResolvedAt)
			}
		}
		if !a.ReportedAt.Equal(b.ReportedAt) {
			return a.ReportedAt.Before(b.ReportedAt)
		}
		return a.ID < b.ID
	})
}
