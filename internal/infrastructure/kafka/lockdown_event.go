package publisher

import "time"

type EventType string

const (
	EventPhaseChanged   EventType = "PHASE_CHANGED"
	EventDayRolledOver  EventType = "DAY_ROLLED_OVER"
	EventFailureRaised  EventType = "CCP_FAILURE_REPORTED"
	EventFailureCleared EventType = "CCP_FAILURE_RESOLVED"
)

// LockdownEvent is published after every accepted change of lockdown state.
// It carries the lockdown snapshot taken right after the change.
type LockdownEvent struct {
	EventID            string    `json:"event_id"`
	Sequence           uint64    `json:"sequence"`
	Type               EventType `json:"type"`
	LocationID         string    `json:"location_id"`
	BusinessDate       string    `json:"business_date"`
	Actor              string    `json:"actor"`
	RecordID           string    `json:"record_id,omitempty"`
	MenuItemIDs        []string  `json:"menu_item_ids,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	Phase              string    `json:"phase"`
	IsLocked           bool      `json:"is_locked"`
	BlockedMenuItemIDs []string  `json:"blocked_menu_item_ids"`
	ActiveFailureCount int       `json:"active_failure_count"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// CCPCheckMessage is a sensor or checklist result consumed from the checks topic.
type CCPCheckMessage struct {
	CheckID     string            `json:"check_id"`
	LocationID  string            `json:"location_id"`
	MenuItemIDs []string          `json:"menu_item_ids"`
	Passed      bool              `json:"passed"`
	Reason      string            `json:"reason"`
	RecordID    string            `json:"record_id,omitempty"`
	Actor       string            `json:"actor"`
	Readings    map[string]string `json:"readings,omitempty"`
}
