package ccp

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
)

func (r *Registry) Resolve(ctx context.Context, recordID, actor string) (*domain.CCPRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.records[recordID]
	if !ok {
		var err error
		if e, err = r.lookupEvicted(ctx, recordID); err != nil {
			return nil, err
		}
	}
	if !e.record.IsActive() {
		return nil, alreadyResolved(e.record)
	}

	resolved := e.record.Clone()
	resolvedAt := r.now()
	resolved.ResolvedAt = &resolvedAt
	resolved.ResolvedBy = actor

	if r.repo != nil {
		if err := r.repo.UpdateCCPRecord(ctx, resolved.Clone()); err != nil {
			return nil, fmt.Errorf("persist ccp resolution: %w", err)
		}
	}
	if !ok {
		r.insert(resolved)
	} else {
		e.record = resolved
	}

	return resolved.Clone(), nil
}

// lookupEvicted finds records that are no longer held in memory: pruned at rollover or
// not restored by Load. An active record found in the repository is returned
// detached; Resolve inserts it once the resolution is stored.
func (r *Registry) lookupEvicted(ctx context.Context, recordID string) (*entry, error) {
	if resolvedAt, ok := r.pruned[recordID]; ok {
		return nil, fmt.Errorf("%w: ccp record %s at %s", domain.ErrAlreadyResolved, recordID, resolvedAt.Format("15:04:05"))
	}
	if r.repo == nil {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}

	stored, err := r.repo.GetCCPRecordByID(ctx, recordID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ccp record: %w", err)
	}
	if stored.LocationID != r.locationID {
		return nil, fmt.Errorf("%w: ccp record %s", domain.ErrNotFound, recordID)
	}
	if !stored.IsActive() {
		return nil, alreadyResolved(stored)
	}
	return &entry{record: stored}, nil
}

func alreadyResolved(record *domain.CCPRecord) error {
	return fmt.Errorf("%w: ccp record %s at %s", domain.ErrAlreadyResolved, record.ID, record.ResolvedAt.Format("15:04:05"))
}
