package domain

import (
	"context"
	"slices"
	"time"
)

// CCPRecord is one critical-control-point failure. ResolvedAt is set exactly once;
// a resolved record no longer blocks anything.
type CCPRecord struct {
	ID          string
	LocationID  string
	MenuItemIDs []string
	Reason      string
	ReportedBy  string
	ReportedAt  time.Time
	ResolvedBy  string
	ResolvedAt  *time.Time
	Metadata    map[string]string
}

func (r *CCPRecord) IsActive() bool {
	return r.ResolvedAt == nil
}

func (r *CCPRecord) Blocks(menuItemID string) bool {
	return r.IsActive() && slices.Contains(r.MenuItemIDs, menuItemID)
}

// Clone returns a deep copy so callers never share slices or maps with the registry.
func (r *CCPRecord) Clone() *CCPRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.MenuItemIDs = slices.Clone(r.MenuItemIDs)
	if r.ResolvedAt != nil {
		resolvedAt := *r.ResolvedAt
		c.ResolvedAt = &resolvedAt
	}
	if r.Metadata != nil {
		c.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

type CCPSortKey string

const (
	SortByReportedAt CCPSortKey = "reported_at"
	SortByResolvedAt CCPSortKey = "resolved_at"
)

type CCPFilter struct {
	LocationID    string
	ActiveOnly    bool
	MenuItemID    *string
	ReportedAfter *time.Time
}

type CCPRepository interface {
	CreateCCPRecord(ctx context.Context, record *CCPRecord) error
	UpdateCCPRecord(ctx context.Context, record *CCPRecord) error
	DeleteCCPRecord(ctx context.Context, recordID string) error
	GetCCPRecordByID(ctx context.Context, recordID string) (*CCPRecord, error)
	FilterCCPRecords(ctx context.Context, filter CCPFilter) ([]*CCPRecord, error)
	ListCCPRecords(ctx context.Context, sortKey CCPSortKey, limit int) ([]*CCPRecord, error)
}
