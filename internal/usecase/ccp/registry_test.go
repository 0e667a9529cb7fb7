package ccp_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-lockdown-service/internal/domain"
	"github.com/LavaJover/shvark-lockdown-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-lockdown-service/internal/usecase/ccp"
	ccpdto "github.com/LavaJover/shvark-lockdown-service/internal/usecase/dto/ccp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by one second on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newRegistry(t *testing.T, opts ...ccp.Option) *ccp.Registry {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	opts = append([]ccp.Option{ccp.WithClock(clock.Now)}, opts...)
	registry, err := ccp.NewRegistry("loc-1", opts...)
	require.NoError(t, err)
	return registry
}

func report(t *testing.T, r *ccp.Registry, reason string, items ...string) *domain.CCPRecord {
	t.Helper()
	record, err := r.ReportFailure(context.Background(), &ccpdto.ReportFailureInput{
		MenuItemIDs: items,
		Reason:      reason,
		Actor:       "line-cook",
	})
	require.NoError(t, err)
	return record
}

func TestReportFailure_BlocksUntilResolved(t *testing.T) {
	registry := newRegistry(t)

	record := report(t, registry, "temp too low", "item-1")
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "loc-1", record.LocationID)
	assert.False(t, record.ReportedAt.IsZero())
	assert.True(t, registry.IsBlocked("item-1"))

	resolved, err := registry.Resolve(context.Background(), record.ID, "chef")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "chef", resolved.ResolvedBy)
	assert.Equal(t, record.ReportedAt, resolved.ReportedAt)
	assert.False(t, registry.IsBlocked("item-1"))
}

func TestReportFailure_Validation(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()

	cases := []*ccpdto.ReportFailureInput{
		nil,
		{MenuItemIDs: []string{"item-1"}, Reason: "   "},
		{MenuItemIDs: nil, Reason: "temp"},
		{MenuItemIDs: []string{" ", ""}, Reason: "temp"},
	}
	for i, input := range cases {
		_, err := registry.ReportFailure(ctx, input)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "case %d", i)
	}
	assert.Empty(t, registry.ListActive())
}

func TestReportFailure_NormalizesItems(t *testing.T) {
	registry := newRegistry(t)

	record := report(t, registry, "  raw chicken  ", " item-1", "item-2", "item-1", "")
	assert.Equal(t, []string{"item-1", "item-2"}, record.MenuItemIDs)
	assert.Equal(t, "raw chicken", record.Reason)
}

func TestResolve_Errors(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()
	record := report(t, registry, "temp too low", "item-1")

	_, err := registry.Resolve(ctx, "nope", "chef")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := registry.Resolve(ctx, record.ID, "chef")
	require.NoError(t, err)

	_, err = registry.Resolve(ctx, record.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	stored, err := registry.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.ResolvedAt, *stored.ResolvedAt)
	assert.Equal(t, "chef", stored.ResolvedBy)
}

func TestListActive_OrderedAndExcludesResolved(t *testing.T) {
	registry := newRegistry(t)
	first := report(t, registry, "a", "item-1")
	second := report(t, registry, "b", "item-2")
	third := report(t, registry, "c", "item-3")

	_, err := registry.Resolve(context.Background(), second.ID, "chef")
	require.NoError(t, err)

	active := registry.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, third.ID, active[1].ID)
}

func TestListActive_TiesKeepReportOrder(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	ids := 0
	registry := newRegistry(t,
		ccp.WithClock(func() time.Time { return fixed }),
		ccp.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("z-%d", 100-ids)
		}))

	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, report(t, registry, "same second", "item-1").ID)
	}

	var got []string
	for _, record := range registry.ListActive() {
		got = append(got, record.ID)
	}
	assert.Equal(t, want, got)
}

func TestListActive_ReturnsCopies(t *testing.T) {
	registry := newRegistry(t)
	report(t, registry, "a", "item-1")

	active := registry.ListActive()
	active[0].MenuItemIDs[0] = "tampered"

	assert.True(t, registry.IsBlocked("item-1"))
	assert.False(t, registry.IsBlocked("tampered"))
}

func TestRegistry_PersistsAndLoads(t *testing.T) {
	repo := memory.NewCCPRepository()
	ctx := context.Background()
	registry := newRegistry(t, ccp.WithRepository(repo))

	kept := report(t, registry, "a", "item-1")
	gone := report(t, registry, "b", "item-2")
	_, err := registry.Resolve(ctx, gone.ID, "chef")
	require.NoError(t, err)

	stored, err := repo.GetCCPRecordByID(ctx, gone.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive())

	restarted := newRegistry(t, ccp.WithRepository(repo))
	loaded, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	active := restarted.ListActive()
	require.Len(t, active, 1)
	assert.Equal(t, kept.ID, active[0].ID)

	loaded, err = restarted.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, loaded)
}

type brokenRepo struct {
	*memory.CCPRepository
}

func (brokenRepo) CreateCCPRecord(context.Context, *domain.CCPRecord) error {
	return errors.New("db down")
}

func (brokenRepo) UpdateCCPRecord(context.Context, *domain.CCPRecord) error {
	return errors.New("db down")
}

func TestRegistry_PersistenceFailureIsNoOp(t *testing.T) {
	registry := newRegistry(t, ccp.WithRepository(brokenRepo{memory.NewCCPRepository()}))

	_, err := registry.ReportFailure(context.Background(), &ccpdto.ReportFailureInput{
		MenuItemIDs: []string{"item-1"},
		Reason:      "temp",
	})
	require.Error(t, err)
	assert.Empty(t, registry.ListActive())
	assert.False(t, registry.IsBlocked("item-1"))
}

func TestPruneResolved(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()
	active := report(t, registry, "a", "item-1")
	resolved := report(t, registry, "b", "item-2")
	_, err := registry.Resolve(ctx, resolved.ID, "chef")
	require.NoError(t, err)

	assert.Equal(t, 1, registry.PruneResolved(time.Now().Add(24*time.Hour)))

	_, err = registry.Get(resolved.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = registry.Get(active.ID)
	assert.NoError(t, err)
}

func TestResolve_AfterPruneStillAlreadyResolved(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()
	record := report(t, registry, "cooler", "item-1")
	_, err := registry.Resolve(ctx, record.ID, "chef")
	require.NoError(t, err)

	assert.Equal(t, 1, registry.PruneResolved(time.Now().Add(24*time.Hour)))
	assert.Zero(t, registry.Len())

	_, err = registry.Resolve(ctx, record.ID, "chef")
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	_, err = registry.Resolve(ctx, "never-reported", "chef")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A week of later rollovers forgets the id.
	registry.PruneResolved(time.Now().Add(9 * 24 * time.Hour))
	_, err = registry.Resolve(ctx, record.ID, "chef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_FallsBackToRepository(t *testing.T) {
	repo := memory.NewCCPRepository()
	ctx := context.Background()
	registry := newRegistry(t, ccp.WithRepository(repo))

	resolved := report(t, registry, "sanitizer", "item-1")
	_, err := registry.Resolve(ctx, resolved.ID, "chef")
	require.NoError(t, err)
	registry.PruneResolved(time.Now().Add(24 * time.Hour))

	_, err = registry.Resolve(ctx, resolved.ID, "chef")
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	// An active record stored by another instance, not yet loaded here.
	require.NoError(t, repo.CreateCCPRecord(ctx, &domain.CCPRecord{
		ID:          "rec-external",
		LocationID:  "loc-1",
		MenuItemIDs: []string{"item-2"},
		Reason:      "sensor offline",
		ReportedAt:  time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC),
	}))
	got, err := registry.Resolve(ctx, "rec-external", "chef")
	require.NoError(t, err)
	assert.Equal(t, "chef", got.ResolvedBy)

	_, err = registry.Resolve(ctx, "rec-external", "chef")
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	require.NoError(t, repo.CreateCCPRecord(ctx, &domain.CCPRecord{
		ID:          "rec-other-site",
		LocationID:  "loc-2",
		MenuItemIDs: []string{"item-3"},
		Reason:      "other kitchen",
	}))
	_, err = registry.Resolve(ctx, "rec-other-site", "chef")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_ConcurrentReportsAndReads(t *testing.T) {
	registry := newRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			record, err := registry.ReportFailure(ctx, &ccpdto.ReportFailureInput{
				MenuItemIDs: []string{fmt.Sprintf("item-%d", i)},
				Reason:      "sensor",
			})
			if err == nil && i%2 == 0 {
				_, _ = registry.Resolve(ctx, record.ID, "chef")
			}
		}(i)
		go func() {
			defer wg.Done()
			for _, record := range registry.ListActive() {
				assert.NotEmpty(t, record.MenuItemIDs)
				assert.NotEmpty(t, record.Reason)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, registry.ListActive(), 25)
}
