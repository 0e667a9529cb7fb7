package domain

import "sort"

// LockdownState is derived from the active CCP records on every query and never stored.
type LockdownState struct {
	IsLocked           bool
	BlockedMenuItemIDs []string
	ActiveFailureCount int
}

func ComputeLockdown(active []*CCPRecord) LockdownState {
	blocked := make(map[string]struct{})
	count := 0
	for _, record := range active {
		if record == nil || !record.IsActive() {
			continue
		}
		count++
		for _, id := range record.MenuItemIDs {
			blocked[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(blocked))
	for id := range blocked {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return LockdownState{
		IsLocked:           count > 0,
		BlockedMenuItemIDs: ids,
		ActiveFailureCount: count,
	}
}

func (s LockdownState) Blocks(menuItemID string) bool {
	i := sort.SearchStrings(s.BlockedMenuItemIDs, menuItemID)
	return i < len(s.BlockedMenuItemIDs) && s.BlockedMenuItemIDs[i] == menuItemID
}

// GateStatus is what the presentation layer renders: phase and lockdown side by side.
type GateStatus struct {
	LocationID   string
	BusinessDate string
	Phase        DayPhase
	Lockdown     LockdownState
}
