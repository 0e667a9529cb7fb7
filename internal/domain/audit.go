package domain

import (
	"context"
	"time"
)

type AuditAction string

const (
	AuditPhaseTransition AuditAction = "PHASE_TRANSITION"
	AuditDayRollover     AuditAction = "DAY_ROLLOVER"
	AuditFailureReported AuditAction = "CCP_FAILURE_REPORTED"
	AuditFailureResolved AuditAction = "CCP_FAILURE_RESOLVED"
)

// AuditEntry records who changed lockdown state. Actor is an opaque caller identity.
type AuditEntry struct {
	ID         string
	LocationID string
	Action     AuditAction
	Actor      string
	RecordID   string
	Phase      DayPhase
	Reason     string
	At         time.Time
}

type AuditLogger interface {
	LogAudit(ctx context.Context, entry AuditEntry) error
}
