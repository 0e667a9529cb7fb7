package gate

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ccp"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/dayphase"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"go.uber.org/zap"
)

const (
	// sideEffectTimeout bounds each background publish/callback.
	sideEffectTimeout = 10 * time.Second
	// sideEffectQueueSize is how many snapshots may wait for delivery before
	// mutations start blocking on the dispatcher.
	sideEffectQueueSize = 256
)

type GateUsecase interface {
	TransitionPhase(ctx context.Context, target domain.DayPhase, actor string) (domain.DayPhase, error)
	Rollover(ctx context.Context, businessDate, actor string) error
	ReportFailure(ctx context.Context, input *ccpdto.ReportFailureInput) (*domain.CCPRecord, error)
	ResolveFailure(ctx context.Context, input *ccpdto.ResolveFailureInput) (*domain.CCPRecord, error)

	CurrentPhase() domain.DayPhase
	ListActive() []*domain.CCPRecord
	IsMenuItemBlocked(menuItemID string) bool
	CanServe(menuItemID string) bool
	CurrentLockdown() domain.LockdownState
	Status() domain.GateStatus
}

type EventPublisher interface {
	PublishLockdownEvent(ctx context.Context, event publisher.LockdownEvent) error
}

type StatusNotifier interface {
	SendStatus(ctx context.Context, payload notifier.StatusPayload) error
}

type Params struct {
	Tracker  *dayphase.Tracker
	Registry *ccp.Registry
	Audit    domain.AuditLogger
	Events   EventPublisher
	Notifier StatusNotifier
	Metrics  *metrics.LockdownMetrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

// DefaultGateUsecase owns the day phase and the CCP registry of one location. Every
// mutation goes through it so audit, metrics, events and callbacks stay consistent.
type DefaultGateUsecase struct {
	locationID string
	tracker    *dayphase.Tracker
	registry   *ccp.Registry

	audit    domain.AuditLogger
	events   EventPublisher
	notifier StatusNotifier
	metrics  *metrics.LockdownMetrics
	log      *zap.Logger
	now      func() time.Time

	// emitMu orders snapshot, sequence and enqueue so deliveries follow state.
	emitMu   sync.Mutex
	sequence uint64
	closed   bool
	queue    chan sideEffect
	pending  sync.WaitGroup
	done     chan struct{}
}

func NewDefaultGateUsecase(p Params) *DefaultGateUsecase {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	uc := &DefaultGateUsecase{
		locationID: p.Registry.LocationID(),
		tracker:    p.Tracker,
		registry:   p.Registry,
		audit:      p.Audit,
		events:     p.Events,
		notifier:   p.Notifier,
		metrics:    p.Metrics,
		log:        log.With(zap.String("location_id", p.Registry.LocationID())),
		now:        now,
	}
	if uc.events != nil || uc.notifier != nil {
		uc.queue = make(chan sideEffect, sideEffectQueueSize)
		uc.done = make(chan struct{})
		go uc.dispatch()
	}
	return uc
}

func (uc *DefaultGateUsecase) LocationID() string {
	return uc.locationID
}

// Restore reloads persisted phase and active failures after a restart.
func (uc *DefaultGateUsecase) Restore(ctx context.Context) error {
	if err := uc.tracker.Restore(ctx); err != nil {
		return err
	}
	loaded, err := uc.registry.Load(ctx)
	if err != nil {
		return err
	}
	uc.log.Info("lockdown state restored",
		zap.String("phase", string(uc.tracker.Current())),
		zap.Int("active_failures_loaded", loaded),
	)
	uc.refreshGauges()
	return nil
}

// HeldRecords is the number of CCP records currently kept in memory, active or not.
func (uc *DefaultGateUsecase) HeldRecords() int {
	return uc.registry.Len()
}

// Wait blocks until every side effect emitted before the call has been delivered.
func (uc *DefaultGateUsecase) Wait() {
	uc.pending.Wait()
}

// Close delivers what is already queued and stops the dispatcher. Mutations after
// Close still apply but publish nothing.
func (uc *DefaultGateUsecase) Close() {
	uc.emitMu.Lock()
	if !uc.closed {
		uc.closed = true
		if uc.queue != nil {
			close(uc.queue)
		}
	}
	uc.emitMu.Unlock()

	if uc.done != nil {
		<-uc.done
	}
}
