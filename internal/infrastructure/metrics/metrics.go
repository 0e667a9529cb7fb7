package metrics

import (
	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LockdownMetrics holds the lockdown metrics of the service
type LockdownMetrics struct {
	// Failures
	FailuresReportedTotal *prometheus.CounterVec
	FailuresResolvedTotal *prometheus.CounterVec
	FailureOpenDuration   *prometheus.HistogramVec

	// Derived lockdown
	ActiveFailures   *prometheus.GaugeVec
	BlockedMenuItems *prometheus.GaugeVec

	// Day phase
	PhaseTransitionsTotal *prometheus.CounterVec
	CurrentPhase          *prometheus.GaugeVec
	DayRolloversTotal     *prometheus.CounterVec

	// Errors
	RejectedOperationsTotal *prometheus.CounterVec
}

// NewLockdownMetrics registers the metrics on reg; nil means the default registerer.
func NewLockdownMetrics(reg prometheus.Registerer) *LockdownMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &LockdownMetrics{
		FailuresReportedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccp_failures_reported_total",
				Help: "Total number of reported CCP failures",
			},
			[]string{"location_id"},
		),

		FailuresResolvedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccp_failures_resolved_total",
				Help: "Total number of resolved CCP failures",
			},
			[]string{"location_id"},
		),

		FailureOpenDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ccp_failure_open_duration_seconds",
				Help:    "Time between a CCP failure report and its resolution",
				Buckets: prometheus.ExponentialBuckets(60, 2, 10), // 1m, 2m, 4m...
			},
			[]string{"location_id"},
		),

		ActiveFailures: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ccp_active_failures",
				Help: "Number of unresolved CCP failures",
			},
			[]string{"location_id"},
		),

		BlockedMenuItems: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lockdown_blocked_menu_items",
				Help: "Number of menu items currently blocked from service",
			},
			[]string{"location_id"},
		),

		PhaseTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "day_phase_transitions_total",
				Help: "Total number of accepted day phase transitions",
			},
			[]string{"location_id", "from", "to"},
		),

		CurrentPhase: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "day_phase_current",
				Help: "1 for the current day phase of the location, 0 otherwise",
			},
			[]string{"location_id", "phase"},
		),

		DayRolloversTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "day_rollovers_total",
				Help: "Total number of business day rollovers",
			},
			[]string{"location_id"},
		),

		RejectedOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lockdown_rejected_operations_total",
				Help: "Total number of rejected lockdown operations by error kind",
			},
			[]string{"location_id", "operation", "error_kind"},
		),
	}
}

func (m *LockdownMetrics) RecordFailureReported(locationID string) {
	m.FailuresReportedTotal.WithLabelValues(locationID).Inc()
}

func (m *LockdownMetrics) RecordFailureResolved(locationID string, openSeconds float64) {
	m.FailuresResolvedTotal.WithLabelValues(locationID).Inc()
	m.FailureOpenDuration.WithLabelValues(locationID).Observe(openSeconds)
}

// RecordLockdown sets the gauges from a freshly derived lockdown snapshot
func (m *LockdownMetrics) RecordLockdown(locationID string, state domain.LockdownState) {
	m.ActiveFailures.WithLabelValues(locationID).Set(float64(state.ActiveFailureCount))
	m.BlockedMenuItems.WithLabelValues(locationID).Set(float64(len(state.BlockedMenuItemIDs)))
}

func (m *LockdownMetrics) RecordPhaseTransition(locationID string, from, to domain.DayPhase) {
	m.PhaseTransitionsTotal.WithLabelValues(locationID, string(from), string(to)).Inc()
	m.RecordPhase(locationID, to)
}

// RecordPhase flips the one-hot phase gauge
func (m *LockdownMetrics) RecordPhase(locationID string, current domain.DayPhase) {
	for _, phase := range []domain.DayPhase{
		domain.PhaseNotStarted,
		domain.PhaseOpening,
		domain.PhaseOpen,
		domain.PhaseClosing,
		domain.PhaseClosed,
	} {
		value := 0.0
		if phase == current {
			value = 1
		}
		m.CurrentPhase.WithLabelValues(locationID, string(phase)).Set(value)
	}
}

func (m *LockdownMetrics) RecordRollover(locationID string) {
	m.DayRolloversTotal.WithLabelValues(locationID).Inc()
	m.RecordPhase(locationID, domain.PhaseNotStarted)
}

func (m *LockdownMetrics) RecordRejected(locationID, operation string, err error) {
	m.RejectedOperationsTotal.WithLabelValues(locationID, operation, domain.ErrorKind(err)).Inc()
}
