package ccp

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/jaevor/go-nanoid"
)

const (
	recordIDLength = 15
	// tombstoneRetention is how long a pruned id keeps answering AlreadyResolved.
	tombstoneRetention = 7 * 24 * time.Hour
)

type entry struct {
	record *domain.CCPRecord
	seq    uint64
}

// Registry keeps the CCP failures of one location. Records move one way, active to
// resolved. Readers always get copies.
type Registry struct {
	mu         sync.RWMutex
	locationID string
	records    map[string]*entry
	seq        uint64
	// pruned remembers the ids of resolved records dropped from memory when there is
	// no repository to ask.
	pruned map[string]time.Time

	repo  domain.CCPRepository
	newID func() string
	now   func() time.Time
}

type Option func(*Registry)

func WithRepository(repo domain.CCPRepository) Option {
	return func(r *Registry) {
		r.repo = repo
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

func NewRegistry(locationID string, opts ...Option) (*Registry, error) {
	r := &Registry{
		locationID: locationID,
		records:    make(map[string]*entry),
		pruned:     make(map[string]time.Time),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.newID == nil {
		idGenerator, err := nanoid.Standard(recordIDLength)
		if err != nil {
			return nil, fmt.Errorf("init id generator: %w", err)
		}
		r.newID = idGenerator
	}
	return r, nil
}

func (r *Registry) LocationID() string {
	return r.locationID
}

// Load restores the active records of the location from the repository.
// Records already known to the registry are kept as they are.
func (r *Registry) Load(ctx context.Context) (int, error) {
	if r.repo == nil {
		return 0, nil
	}

	records, err := r.repo.FilterCCPRecords(ctx, domain.CCPFilter{
		LocationID: r.locationID,
		ActiveOnly: true,
	})
	if err != nil {
		return 0, fmt.Errorf("load active ccp records: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReportedAt.Before(records[j].ReportedAt)
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for _, record := range records {
		if _, ok := r.records[record.ID]; ok {
			continue
		}
		r.insert(record.Clone())
		loaded++
	}
	return loaded, nil
}

// PruneResolved drops records resolved before the given time from memory. The
// repository keeps them; without one only the record id is remembered.
func (r *Registry) PruneResolved(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, resolvedAt := range r.pruned {
		if resolvedAt.Before(before.Add(-tombstoneRetention)) {
			delete(r.pruned, id)
		}
	}

	pruned := 0
	for id, e := range r.records {
		if e.record.ResolvedAt != nil && e.record.ResolvedAt.Before(before) {
			if r.repo == nil {
				r.pruned[id] = *e.record.ResolvedAt
			}
			delete(r.records, id)
			pruned++
		}
	}
	return pruned
}

// Len is the number of full records held in memory, active and resolved.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) insert(record *domain.CCPRecord) {
	r.seq++
	r.records[record.ID] = &entry{record: record, seq: r.seq}
}
