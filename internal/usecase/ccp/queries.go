package ccp

import (
	"fmt"
	"sort"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
)

// ListActive returns the unresolved records, earliest report first.
func (r *Registry) ListActive() []*domain.CCPRecord {
	r.mu.RLock()
	active := make([]entry, 0, len(r.records))
	for _, e := range r.records {
		if e.record.IsActive() {
			active = append(active, entry{record: e.record.Clone(), seq: e.seq})
		}
	}
	r.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if !a.record.ReportedAt.Equal(b.record.ReportedAt) {
			return a.record.ReportedAt.Before(b.record.ReportedAt)
		}
		return a.seq < b.seq
	})

	records := make([]*domain.CCPRecord, len(active))
	for i, e := range active {
		records[i] = e.record
	}
	return records
}

func (r *Registry) Get(recordID string) (*domain.CCPRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.records[recordID]
	if !ok {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	return e.record.Clone(), nil
}

func (r *Registry) IsBlocked(menuItemID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.records {
		if e.record.Blocks(menuItemID) {
			return true
		}
	}
	return false
}
