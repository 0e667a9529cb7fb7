package gate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	publisher "github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ccp"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/dayphase"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/gate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (a *recordingAudit) LogAudit(_ context.Context, entry domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func (a *recordingAudit) Entries() []domain.AuditEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.AuditEntry(nil), a.entries...)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []publisher.LockdownEvent
	err    error
}

func (e *recordingEvents) PublishLockdownEvent(_ context.Context, event publisher.LockdownEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEvents) Events() []publisher.LockdownEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]publisher.LockdownEvent(nil), e.events...)
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []notifier.StatusPayload

	// slowEvent is held back by slowFor before it is recorded.
	slowEvent string
	slowFor   time.Duration
}

func (n *recordingNotifier) SendStatus(_ context.Context, payload notifier.StatusPayload) error {
	if payload.Event == n.slowEvent {
		time.Sleep(n.slowFor)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, payload)
	return nil
}

func (n *recordingNotifier) Payloads() []notifier.StatusPayload {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifier.StatusPayload(nil), n.payloads...)
}

type fixture struct {
	gate     *gate.DefaultGateUsecase
	audit    *recordingAudit
	events   *recordingEvents
	notifier *recordingNotifier
	metrics  *metrics.LockdownMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := ccp.NewRegistry("loc-1", ccp.WithRepository(memory.NewCCPRepository()))
	require.NoError(t, err)
	tracker := dayphase.NewTracker("loc-1", "2026-05-01", dayphase.WithRepository(memory.NewDayPhaseRepository()))

	f := &fixture{
		audit:    &recordingAudit{},
		events:   &recordingEvents{},
		notifier: &recordingNotifier{},
		metrics:  metrics.NewLockdownMetrics(prometheus.NewRegistry()),
	}
	f.gate = gate.NewDefaultGateUsecase(gate.Params{
		Tracker:  tracker,
		Registry: registry,
		Audit:    f.audit,
		Events:   f.events,
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Logger:   zap.NewNop(),
	})
	t.Cleanup(f.gate.Close)
	return f
}

func (f *fixture) report(t *testing.T, reason string, items ...string) *domain.CCPRecord {
	t.Helper()
	record, err := f.gate.ReportFailure(context.Background(), &ccpdto.ReportFailureInput{
		MenuItemIDs: items,
		Reason:      reason,
		Actor:       "cook",
	})
	require.NoError(t, err)
	return record
}

func TestGate_ReportThenResolveUnblocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record := f.report(t, "temp too low", "item-1")
	assert.True(t, f.gate.IsMenuItemBlocked("item-1"))
	assert.False(t, f.gate.CanServe("item-1"))
	assert.True(t, f.gate.CanServe("item-2"))

	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	require.NoError(t, err)
	assert.False(t, f.gate.IsMenuItemBlocked("item-1"))
	assert.True(t, f.gate.CanServe("item-1"))
}

func TestGate_LockdownScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.report(t, "fridge above 5C", "item-1")
	f.report(t, "undercooked batch", "item-2")

	lockdown := f.gate.CurrentLockdown()
	assert.True(t, lockdown.IsLocked)
	assert.Equal(t, 2, lockdown.ActiveFailureCount)
	assert.Equal(t, []string{"item-1", "item-2"}, lockdown.BlockedMenuItemIDs)

	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: first.ID, Actor: "chef"})
	require.NoError(t, err)

	lockdown = f.gate.CurrentLockdown()
	assert.Equal(t, 1, lockdown.ActiveFailureCount)
	assert.Equal(t, []string{"item-2"}, lockdown.BlockedMenuItemIDs)
	assert.Equal(t, lockdown, f.gate.CurrentLockdown())
}

func TestGate_ItemBlockedByTwoCauses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.report(t, "sensor a", "item-1")
	f.report(t, "sensor b", "item-1", "item-3")

	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: a.ID, Actor: "chef"})
	require.NoError(t, err)
	assert.True(t, f.gate.IsMenuItemBlocked("item-1"))
}

func TestGate_PhaseDoesNotBlockService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, domain.PhaseNotStarted, f.gate.CurrentPhase())
	assert.True(t, f.gate.CanServe("item-1"))

	for _, target := range []domain.DayPhase{domain.PhaseOpening, domain.PhaseOpen, domain.PhaseClosing, domain.PhaseClosed} {
		_, err := f.gate.TransitionPhase(ctx, target, "gm")
		require.NoError(t, err)
	}
	assert.True(t, f.gate.CanServe("item-1"))
	assert.Equal(t, domain.PhaseClosed, f.gate.Status().Phase)
}

func TestGate_RejectedTransitionEmitsNothing(t *testing.T) {
	f := newFixture(t)

	phase, err := f.gate.TransitionPhase(context.Background(), domain.PhaseOpen, "gm")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.PhaseNotStarted, phase)

	f.gate.Wait()
	assert.Empty(t, f.audit.Entries())
	assert.Empty(t, f.events.Events())
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.RejectedOperationsTotal.WithLabelValues("loc-1", "transition_phase", "invalid_transition")))
}

func TestGate_ResolveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	record := f.report(t, "temp", "item-1")

	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: "missing", Actor: "chef"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	require.NoError(t, err)
	_, err = f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestGate_SideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gate.TransitionPhase(ctx, domain.PhaseOpening, "gm")
	require.NoError(t, err)
	record := f.report(t, "temp too low", "item-1")
	f.gate.Wait()

	entries := f.audit.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditPhaseTransition, entries[0].Action)
	assert.Equal(t, domain.PhaseOpening, entries[0].Phase)
	assert.Equal(t, domain.AuditFailureReported, entries[1].Action)
	assert.Equal(t, record.ID, entries[1].RecordID)
	assert.Equal(t, "cook", entries[1].Actor)
	assert.Equal(t, "loc-1", entries[1].LocationID)
	assert.NotEmpty(t, entries[1].ID)

	events := f.events.Events()
	require.Len(t, events, 2)
	var raised publisher.LockdownEvent
	for _, event := range events {
		if event.Type == publisher.EventFailureRaised {
			raised = event
		}
	}
	assert.Equal(t, record.ID, raised.RecordID)
	assert.True(t, raised.IsLocked)
	assert.Equal(t, []string{"item-1"}, raised.BlockedMenuItemIDs)
	assert.Equal(t, "OPENING", raised.Phase)
	assert.Equal(t, "2026-05-01", raised.BusinessDate)

	assert.Len(t, f.notifier.Payloads(), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveFailures.WithLabelValues("loc-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FailuresReportedTotal.WithLabelValues("loc-1")))
}

func TestGate_SideEffectFailuresDoNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("audit table locked")
	f.events.err = errors.New("broker down")

	record := f.report(t, "temp", "item-1")
	f.gate.Wait()

	assert.NotEmpty(t, record.ID)
	assert.True(t, f.gate.IsMenuItemBlocked("item-1"))
}

func TestGate_RolloverKeepsActiveFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, target := range []domain.DayPhase{domain.PhaseOpening, domain.PhaseOpen, domain.PhaseClosing, domain.PhaseClosed} {
		_, err := f.gate.TransitionPhase(ctx, target, "gm")
		require.NoError(t, err)
	}
	active := f.report(t, "cooler broken", "item-1")
	resolved := f.report(t, "sanitizer low", "item-2")
	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: resolved.ID, Actor: "chef"})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	require.NoError(t, f.gate.Rollover(ctx, "2026-05-02", "system"))

	status := f.gate.Status()
	assert.Equal(t, domain.PhaseNotStarted, status.Phase)
	assert.Equal(t, "2026-05-02", status.BusinessDate)
	assert.Equal(t, 1, status.Lockdown.ActiveFailureCount)
	assert.True(t, f.gate.IsMenuItemBlocked("item-1"))

	_, err = f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: resolved.ID, Actor: "chef"})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	_, err = f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: active.ID, Actor: "chef"})
	assert.NoError(t, err)

	assert.ErrorIs(t, f.gate.Rollover(ctx, "02/05/2026", "system"), domain.ErrInvalidInput)
}

func TestGate_SideEffectsDeliveredInOrder(t *testing.T) {
	f := newFixture(t)
	f.notifier.slowEvent = string(publisher.EventFailureRaised)
	f.notifier.slowFor = 50 * time.Millisecond
	ctx := context.Background()

	record := f.report(t, "temp too low", "item-1")
	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	require.NoError(t, err)
	f.gate.Wait()

	payloads := f.notifier.Payloads()
	require.Len(t, payloads, 2)
	assert.Equal(t, string(publisher.EventFailureRaised), payloads[0].Event)
	assert.True(t, payloads[0].IsLocked)
	assert.Equal(t, string(publisher.EventFailureCleared), payloads[1].Event)
	assert.False(t, payloads[1].IsLocked)
	assert.Less(t, payloads[0].Sequence, payloads[1].Sequence)

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, publisher.EventFailureRaised, events[0].Type)
	assert.Equal(t, publisher.EventFailureCleared, events[1].Type)
	assert.Equal(t, payloads[0].Sequence, events[0].Sequence)
	assert.Equal(t, payloads[1].Sequence, events[1].Sequence)
}

func TestGate_SequenceIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.gate.ReportFailure(ctx, &ccpdto.ReportFailureInput{MenuItemIDs: []string{"item-1"}, Reason: "temp"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	f.gate.Wait()

	payloads := f.notifier.Payloads()
	require.Len(t, payloads, 20)
	for i, payload := range payloads {
		assert.Equal(t, uint64(i+1), payload.Sequence)
		if i > 0 {
			assert.GreaterOrEqual(t, payload.ActiveFailureCount, payloads[i-1].ActiveFailureCount)
		}
	}
	assert.Equal(t, 20, payloads[19].ActiveFailureCount)
}

func TestGate_CloseFlushesAndStopsPublishing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.report(t, "temp", "item-1")
	f.gate.Close()
	require.Len(t, f.events.Events(), 1)

	f.report(t, "temp", "item-2")
	f.gate.Wait()
	f.gate.Close()
	assert.Len(t, f.events.Events(), 1)
	assert.Len(t, f.notifier.Payloads(), 1)
	assert.True(t, f.gate.IsMenuItemBlocked("item-2"))

	_, err := f.gate.TransitionPhase(ctx, domain.PhaseOpening, "gm")
	assert.NoError(t, err)
}

func TestGate_ResolveNilInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.ResolveFailure(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.RejectedOperationsTotal.WithLabelValues("loc-1", "resolve_failure", "invalid_input")))
	assert.Empty(t, f.audit.Entries())
}

func TestGate_ResolveAfterRolloverIsAlreadyResolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record := f.report(t, "temp", "item-1")
	_, err := f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	require.NoError(t, f.gate.Rollover(ctx, "2026-05-02", "system"))
	assert.Zero(t, f.gate.HeldRecords())

	_, err = f.gate.ResolveFailure(ctx, &ccpdto.ResolveFailureInput{RecordID: record.ID, Actor: "chef"})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestGate_RolloverRejectsEarlierDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.gate.Rollover(ctx, "2026-04-30", "system")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "2026-05-01", f.gate.Status().BusinessDate)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.RejectedOperationsTotal.WithLabelValues("loc-1", "rollover", "invalid_input")))
}

func TestGate_ConcurrentTransitionsRecordTrueEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	next := map[domain.DayPhase]domain.DayPhase{
		domain.PhaseNotStarted: domain.PhaseOpening,
		domain.PhaseOpening:    domain.PhaseOpen,
		domain.PhaseOpen:       domain.PhaseClosing,
		domain.PhaseClosing:    domain.PhaseClosed,
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				current := f.gate.CurrentPhase()
				if current == domain.PhaseClosed {
					return
				}
				_, _ = f.gate.TransitionPhase(ctx, next[current], "gm")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, testutil.CollectAndCount(f.metrics.PhaseTransitionsTotal))
	for from, to := range next {
		assert.Equal(t, 1.0, testutil.ToFloat64(
			f.metrics.PhaseTransitionsTotal.WithLabelValues("loc-1", string(from), string(to))), "%s -> %s", from, to)
	}
}

func TestGate_Restore(t *testing.T) {
	ccpRepo := memory.NewCCPRepository()
	phaseRepo := memory.NewDayPhaseRepository()
	ctx := context.Background()

	build := func() *gate.DefaultGateUsecase {
		registry, err := ccp.NewRegistry("loc-1", ccp.WithRepository(ccpRepo))
		require.NoError(t, err)
		return gate.NewDefaultGateUsecase(gate.Params{
			Tracker:  dayphase.NewTracker("loc-1", "2026-05-01", dayphase.WithRepository(phaseRepo)),
			Registry: registry,
		})
	}

	first := build()
	_, err := first.TransitionPhase(ctx, domain.PhaseOpening, "gm")
	require.NoError(t, err)
	_, err = first.ReportFailure(ctx, &ccpdto.ReportFailureInput{MenuItemIDs: []string{"item-1"}, Reason: "temp"})
	require.NoError(t, err)

	second := build()
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, domain.PhaseOpening, second.CurrentPhase())
	assert.True(t, second.IsMenuItemBlocked("item-1"))
	assert.Len(t, second.ListActive(), 1)
}
