package planupdate

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitehub/internal/core/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstreamCatalog() []APIPlan {
	return []APIPlan{
		{ProductID: 1, ProductName: "Free", ProductSlug: "free_plan", BillPeriod: -1},
		{ProductID: 1009, ProductName: "Personal", ProductSlug: "personal-bundle", RawPrice: 35, CurrencyCode: "USD", BillPeriod: 365},
		{ProductID: 1003, ProductName: "Premium", ProductSlug: "value_bundle", RawPrice: 99, CurrencyCode: "USD", BillPeriod: 365},
		{ProductID: 1008, ProductName: "Business", ProductSlug: "business-bundle", RawPrice: 25, CurrencyCode: "EUR", BillPeriod: 31},
	}
}

func upstreamSite() []APIPlan {
	return []APIPlan{
		{ProductID: 1008, ProductName: "Business", ProductSlug: "business-bundle"},
		{ProductID: 1003, ProductName: "Premium", ProductSlug: "value_bundle", CurrentPlan: true},
		{ProductID: 1, ProductName: "Free", ProductSlug: "free_plan"},
	}
}

type syncFixture struct {
	svc    *SyncService
	source *fakeSource
	repo   *memRepo
	cache  *countingCache
	state  *memState
	bus    *Bus
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		source: &fakeSource{globals: upstreamCatalog(), sites: map[int64][]APIPlan{42: upstreamSite(), 7: upstreamSite()}},
		repo:   newMemRepo(),
		cache:  &countingCache{},
		state:  newMemState(),
		bus:    NewBus(4),
	}
	f.svc = NewSyncService(SyncConfig{
		Source:  f.source,
		Repo:    f.repo,
		Cache:   f.cache,
		State:   f.state,
		Bus:     f.bus,
		Workers: 2,
	})
	return f
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRefresh_StoresPlansAndPublishes(t *testing.T) {
	f := newSyncFixture()
	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()
	other, unsubscribeOther := f.bus.Subscribe(7)
	defer unsubscribeOther()

	require.NoError(t, f.svc.Refresh(context.Background(), 42))

	assert.Len(t, f.repo.globals, 4)
	assert.Equal(t, 2, f.repo.globals[1003].Rank)
	assert.Equal(t, "yearly", f.repo.globals[1003].BillPeriod)
	assert.Equal(t, "monthly", f.repo.globals[1008].BillPeriod)
	assert.Equal(t, "USD", f.repo.globals[1].Currency)
	assert.Equal(t, 1, f.cache.invalidated)

	assert.Len(t, f.repo.sitePlans[42], 3)
	assert.Equal(t, int64(1003), f.repo.sites[42].PlanProductID)

	st, _ := f.state.Get(context.Background(), 42)
	require.NotNil(t, st)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 3, st.PlanCount)

	ev := receive(t, events)
	updated, ok := ev.(PlansUpdated)
	require.True(t, ok)
	assert.Equal(t, int64(42), updated.BlogID)
	require.Len(t, updated.Plans, 3)
	assert.Equal(t, plans.ProductID(1), updated.Plans[0].ProductID)

	select {
	case ev := <-other:
		t.Fatalf("subscriber of blog 7 got %T", ev)
	default:
	}
}

func TestRefresh_FailurePublishesAndRecords(t *testing.T) {
	f := newSyncFixture()
	f.source.siteErr = errors.New("HTTP 500: boom")
	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	err := f.svc.Refresh(context.Background(), 42)
	require.Error(t, err)

	failed, ok := receive(t, events).(PlansUpdateFailed)
	require.True(t, ok)
	assert.Equal(t, int64(42), failed.BlogID)
	assert.ErrorContains(t, failed.Err, "boom")

	st, _ := f.state.Get(context.Background(), 42)
	require.NotNil(t, st)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Empty(t, f.repo.sitePlans[42])
}

func TestRefresh_EmptyCatalog(t *testing.T) {
	f := newSyncFixture()
	f.source.globals = nil

	err := f.svc.Refresh(context.Background(), 42)
	assert.ErrorContains(t, err, "empty plan catalog")
	assert.Equal(t, 0, f.cache.invalidated)
}

func TestEnqueue(t *testing.T) {
	f := newSyncFixture()
	assert.False(t, f.svc.Enqueue(42), "not started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.Start(ctx)

	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	require.True(t, f.svc.Enqueue(42))
	_, ok := receive(t, events).(PlansUpdated)
	assert.True(t, ok)

	f.svc.Stop()
	assert.False(t, f.svc.Enqueue(42), "stopped")
}

func TestRefreshAll_SkipsFreshSites(t *testing.T) {
	f := newSyncFixture()
	f.repo.sites[42] = modelsSite(42)
	f.repo.sites[7] = modelsSite(7)
	ctx := context.Background()

	require.NoError(t, f.svc.Refresh(ctx, 42))
	calls := f.source.calls

	refreshed, failed, err := f.svc.RefreshAll(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, calls+1, f.source.calls)

	refreshed, _, err = f.svc.RefreshAll(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
}

func productIDs(list []plans.SitePlan) []plans.ProductID {
	ids := make([]plans.ProductID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ProductID)
	}
	return ids
}

func TestRefresh_PublishesPlansInRankOrder(t *testing.T) {
	f := newSyncFixture()
	f.source.sites[42] = []APIPlan{
		{ProductID: 1008, ProductName: "Business", ProductSlug: "business-bundle"},
		{ProductID: 1, ProductName: "Free", ProductSlug: "free_plan", CurrentPlan: true},
		{ProductID: 1003, ProductName: "Premium", ProductSlug: "value_bundle"},
	}
	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	require.NoError(t, f.svc.Refresh(context.Background(), 42))

	updated, ok := receive(t, events).(PlansUpdated)
	require.True(t, ok)
	assert.Equal(t, []plans.ProductID{1, 1003, 1008}, productIDs(updated.Plans))
	assert.True(t, updated.Plans[0].IsCurrentPlan)
}

func TestRefresh_SitePlanMissingFromCatalog(t *testing.T) {
	f := newSyncFixture()
	f.source.sites[42] = []APIPlan{{ProductID: 1}, {ProductID: 2002}}
	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	err := f.svc.Refresh(context.Background(), 42)
	assert.ErrorIs(t, err, plans.ErrUnknownPlan)

	_, ok := receive(t, events).(PlansUpdateFailed)
	assert.True(t, ok)
	assert.Empty(t, f.repo.sitePlans[42])
}

func TestEnqueue_WhileRunningRefreshesAgain(t *testing.T) {
	f := newSyncFixture()
	gate := newGatedSource(f.source)
	f.svc.source = gate

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.svc.Start(ctx)
	defer f.svc.Stop()

	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	require.True(t, f.svc.Enqueue(42))
	assert.Equal(t, int64(42), gate.wait(t))

	// arrives after the running refresh already fetched
	require.True(t, f.svc.Enqueue(42))
	require.True(t, f.svc.Enqueue(42))
	gate.open()

	_, ok := receive(t, events).(PlansUpdated)
	require.True(t, ok)

	assert.Equal(t, int64(42), gate.wait(t))
	gate.open()
	_, ok = receive(t, events).(PlansUpdated)
	require.True(t, ok)

	assert.Equal(t, 2, f.source.calls)
}

func TestEnqueue_RestartAfterCancelledQueue(t *testing.T) {
	f := newSyncFixture()
	gate := newGatedSource(f.source)
	f.svc.source = gate
	f.svc.workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	f.svc.Start(ctx)

	require.True(t, f.svc.Enqueue(7))
	assert.Equal(t, int64(7), gate.wait(t))
	require.True(t, f.svc.Enqueue(42), "queued behind blog 7")

	// the worker drops the queued refresh of 42 once cancelled
	cancel()
	gate.open()
	f.svc.Stop()

	events, unsubscribe := f.bus.Subscribe(42)
	defer unsubscribe()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	f.svc.Start(ctx2)
	defer f.svc.Stop()

	require.True(t, f.svc.Enqueue(42))
	assert.Equal(t, int64(42), gate.wait(t))
	gate.open()

	_, ok := receive(t, events).(PlansUpdated)
	assert.True(t, ok)
}
