package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
)

type DayPhaseRepository struct {
	mu     sync.RWMutex
	phases map[string]domain.DayPhaseRecord
}

func NewDayPhaseRepository() *DayPhaseRepository {
	return &DayPhaseRepository{
		phases: make(map[string]domain.DayPhaseRecord),
	}
}

func dayKey(locationID, businessDate string) string {
	return locationID + "/" + businessDate
}

func (r *DayPhaseRepository) GetDayPhase(_ context.Context, locationID, businessDate string) (*domain.DayPhaseRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.phases[dayKey(locationID, businessDate)]
	if !ok {
		return nil, fmt.Errorf("%w: day phase %s %s", domain.ErrNotFound, locationID, businessDate)
	}
	return &record, nil
}

func (r *DayPhaseRepository) SaveDayPhase(_ context.Context, record *domain.DayPhaseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.phases[dayKey(record.LocationID, record.BusinessDate)] = *record
	return nil
}
