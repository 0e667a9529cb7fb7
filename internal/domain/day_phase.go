package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type DayPhase string

const (
	PhaseNotStarted DayPhase = "NOT_STARTED"
	PhaseOpening    DayPhase = "OPENING"
	PhaseOpen       DayPhase = "OPEN"
	PhaseClosing    DayPhase = "CLOSING"
	PhaseClosed     DayPhase = "CLOSED"
)

// dayPhaseOrder is the only legal sequence of phases within one business day.
var dayPhaseOrder = []DayPhase{
	PhaseNotStarted,
	PhaseOpening,
	PhaseOpen,
	PhaseClosing,
	PhaseClosed,
}

func (p DayPhase) index() int {
	for i, phase := range dayPhaseOrder {
		if phase == p {
			return i
		}
	}
	return -1
}

func (p DayPhase) IsValid() bool {
	return p.index() >= 0
}

// Next returns the phase that follows p and false when p is terminal or unknown.
func (p DayPhase) Next() (DayPhase, bool) {
	i := p.index()
	if i < 0 || i == len(dayPhaseOrder)-1 {
		return "", false
	}
	return dayPhaseOrder[i+1], true
}

func (p DayPhase) IsTerminal() bool {
	return p == PhaseClosed
}

// ParseDayPhase accepts the canonical names as well as lower-case and dashed forms ("not-started").
func ParseDayPhase(s string) (DayPhase, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	phase := DayPhase(normalized)
	if !phase.IsValid() {
		return "", fmt.Errorf("%w: unknown day phase %q", ErrInvalidInput, s)
	}
	return phase, nil
}

// TransitionDayPhase validates a move from current to target. Only the single forward
// step is legal; CLOSED can only be left through a day rollover.
func TransitionDayPhase(current, target DayPhase) (DayPhase, error) {
	if !current.IsValid() {
		return current, fmt.Errorf("%w: unknown current phase %q", ErrInvalidInput, current)
	}
	if !target.IsValid() {
		return current, fmt.Errorf("%w: unknown target phase %q", ErrInvalidInput, target)
	}
	next, ok := current.Next()
	if !ok || next != target {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return target, nil
}

// DayPhaseRecord is the persisted phase of one location-day.
type DayPhaseRecord struct {
	LocationID   string
	BusinessDate string // YYYY-MM-DD in the location's timezone
	Phase        DayPhase
	UpdatedBy    string
	UpdatedAt    time.Time
}

type DayPhaseRepository interface {
	GetDayPhase(ctx context.Context, locationID, businessDate string) (*DayPhaseRecord, error)
	SaveDayPhase(ctx context.Context, record *DayPhaseRecord) error
}

const BusinessDateLayout = "2006-01-02"

func BusinessDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(BusinessDateLayout)
}
