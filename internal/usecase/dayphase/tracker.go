package dayphase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
)

// Tracker holds the phase of a single location-day. All transitions are serialized;
// a rejected or failed call never changes state.
type Tracker struct {
	mu           sync.RWMutex
	locationID   string
	businessDate string
	phase        domain.DayPhase
	updatedBy    string
	updatedAt    time.Time

	repo domain.DayPhaseRepository
	now  func() time.Time
}

type Option func(*Tracker)

func WithRepository(repo domain.DayPhaseRepository) Option {
	return func(t *Tracker) {
		t.repo = repo
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func NewTracker(locationID, businessDate string, opts ...Option) *Tracker {
	t := &Tracker{
		locationID:   locationID,
		businessDate: businessDate,
		phase:        domain.PhaseNotStarted,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Current() domain.DayPhase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

func (t *Tracker) Snapshot() domain.DayPhaseRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return domain.DayPhaseRecord{
		LocationID:   t.locationID,
		BusinessDate: t.businessDate,
		Phase:        t.phase,
		UpdatedBy:    t.updatedBy,
		UpdatedAt:    t.updatedAt,
	}
}

// Transition moves the day one step forward and returns the phases before and after
// the call. On error both are the unchanged current phase.
func (t *Tracker) Transition(ctx context.Context, target domain.DayPhase, actor string) (from, to domain.DayPhase, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from = t.phase
	next, err := domain.TransitionDayPhase(from, target)
	if err != nil {
		return from, from, err
	}

	record := domain.DayPhaseRecord{
		LocationID:   t.locationID,
		BusinessDate: t.businessDate,
		Phase:        next,
		UpdatedBy:    actor,
		UpdatedAt:    t.now(),
	}
	if err := t.save(ctx, &record); err != nil {
		return from, from, err
	}
	t.apply(record)
	return from, next, nil
}

// Rollover starts a new business day in NOT_STARTED. It is the only way out of CLOSED.
// The business date never moves backward.
func (t *Tracker) Rollover(ctx context.Context, businessDate, actor string) error {
	if _, err := time.Parse(domain.BusinessDateLayout, businessDate); err != nil {
		return fmt.Errorf("%w: business date %q: %v", domain.ErrInvalidInput, businessDate, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// YYYY-MM-DD compares correctly as a string.
	if businessDate < t.businessDate {
		return fmt.Errorf("%w: business date %s is before current %s", domain.ErrInvalidInput, businessDate, t.businessDate)
	}

	record := domain.DayPhaseRecord{
		LocationID:   t.locationID,
		BusinessDate: businessDate,
		Phase:        domain.PhaseNotStarted,
		UpdatedBy:    actor,
		UpdatedAt:    t.now(),
	}
	if err := t.save(ctx, &record); err != nil {
		return err
	}
	t.apply(record)
	return nil
}

// Restore loads the persisted phase for the tracker's location-day. A missing record
// leaves the tracker in NOT_STARTED.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.repo == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	record, err := t.repo.GetDayPhase(ctx, t.locationID, t.businessDate)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore day phase: %w", err)
	}
	if !record.Phase.IsValid() {
		return fmt.Errorf("restore day phase: %w: stored phase %q", domain.ErrInvalidInput, record.Phase)
	}
	t.apply(*record)
	return nil
}

func (t *Tracker) save(ctx context.Context, record *domain.DayPhaseRecord) error {
	if t.repo == nil {
		return nil
	}
	if err := t.repo.SaveDayPhase(ctx, record); err != nil {
		return fmt.Errorf("save day phase: %w", err)
	}
	return nil
}

func (t *Tracker) apply(record domain.DayPhaseRecord) {
	t.businessDate = record.BusinessDate
	t.phase = record.Phase
	t.updatedBy = record.UpdatedBy
	t.updatedAt = record.UpdatedAt
}
