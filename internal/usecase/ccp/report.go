package ccp

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
)

// ReportFailure registers a new active failure. The record is built and persisted
// before it becomes visible to readers.
func (r *Registry) ReportFailure(ctx context.Context, input *ccpdto.ReportFailureInput) (*domain.CCPRecord, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty report", domain.ErrInvalidInput)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}
	menuItemIDs := normalizeMenuItemIDs(input.MenuItemIDs)
	if len(menuItemIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one menu item is required", domain.ErrInvalidInput)
	}

	var metadata map[string]string
	if len(input.Metadata) > 0 {
		metadata = make(map[string]string, len(input.Metadata))
		for k, v := range input.Metadata {
			metadata[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record := &domain.CCPRecord{
		ID:          r.newID(),
		LocationID:  r.locationID,
		MenuItemIDs: menuItemIDs,
		Reason:      reason,
		ReportedBy:  input.Actor,
		ReportedAt:  r.now(),
		Metadata:    metadata,
	}
	if _, exists := r.records[record.ID]; exists {
		return nil, fmt.Errorf("duplicate ccp record id %s", record.ID)
	}

	if r.repo != nil {
		if err := r.repo.CreateCCPRecord(ctx, record.Clone()); err != nil {
			return nil, fmt.Errorf("persist ccp record: %w", err)
		}
	}
	r.insert(record)

	return record.Clone(), nil
}

// normalizeMenuItemIDs trims ids, drops blanks and duplicates, and keeps the first-seen order.
func normalizeMenuItemIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
