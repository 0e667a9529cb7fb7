package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

const dayPhaseKeyPrefix = "lockdown:dayphase:"

type dayPhaseValue struct {
	Phase     string    `json:"phase"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayPhaseRepository keeps one key per location-day. Keys expire after ttl so stale
// days clean themselves up.
type DayPhaseRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDayPhaseRepository(client *redis.Client, ttl time.Duration) *DayPhaseRepository {
	return &DayPhaseRepository{client: client, ttl: ttl}
}

func dayPhaseKey(locationID, businessDate string) string {
	return dayPhaseKeyPrefix + locationID + ":" + businessDate
}

func (r *DayPhaseRepository) GetDayPhase(ctx context.Context, locationID, businessDate string) (*domain.DayPhaseRecord, error) {
	raw, err := r.client.Get(ctx, dayPhaseKey(locationID, businessDate)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: day phase %s %s", domain.ErrNotFound, locationID, businessDate)
	}
	if err != nil {
		return nil, fmt.Errorf("get day phase: %w", err)
	}

	var value dayPhaseValue
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode day phase: %w", err)
	}
	return &domain.DayPhaseRecord{
		LocationID:   locationID,
		BusinessDate: businessDate,
		Phase:        domain.DayPhase(value.Phase),
		UpdatedBy:    value.UpdatedBy,
		UpdatedAt:    value.UpdatedAt,
	}, nil
}

func (r *DayPhaseRepository) SaveDayPhase(ctx context.Context, record *domain.DayPhaseRecord) error {
	raw, err := json.Marshal(dayPhaseValue{
		Phase:     string(record.Phase),
		UpdatedBy: record.UpdatedBy,
		UpdatedAt: record.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode day phase: %w", err)
	}
	if err := r.client.Set(ctx, dayPhaseKey(record.LocationID, record.BusinessDate), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save day phase: %w", err)
	}
	return nil
}
