package notifier

import "time"

// StatusPayload is the body POSTed to the presentation callback after each change.
type StatusPayload struct {
	Event              string    `json:"event"`
	Sequence           uint64    `json:"sequence"`
	LocationID         string    `json:"location_id"`
	BusinessDate       string    `json:"business_date"`
	Phase              string    `json:"phase"`
	IsLocked           bool      `json:"is_locked"`
	BlockedMenuItemIDs []string  `json:"blocked_menu_item_ids"`
	ActiveFailureCount int       `json:"active_failure_count"`
	SentAt             time.Time `json:"sent_at"`
}
