package planupdate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sitehub/internal/microservices/http-api/models"
)

type fakeSource struct {
	mu        sync.Mutex
	globals   []APIPlan
	sites     map[int64][]APIPlan
	globalErr error
	siteErr   error
	calls     int
}

func (f *fakeSource) GlobalPlans(ctx context.Context) ([]APIPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.globalErr != nil {
		return nil, f.globalErr
	}
	return f.globals, nil
}

func (f *fakeSource) SitePlans(ctx context.Context, blogID int64) ([]APIPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.siteErr != nil {
		return nil, f.siteErr
	}
	return f.sites[blogID], nil
}

// gatedSource holds every SitePlans call until the test opens the gate
type gatedSource struct {
	*fakeSource
	entered chan int64
	release chan struct{}
}

func newGatedSource(src *fakeSource) *gatedSource {
	return &gatedSource{fakeSource: src, entered: make(chan int64), release: make(chan struct{})}
}

func (g *gatedSource) SitePlans(ctx context.Context, blogID int64) ([]APIPlan, error) {
	g.entered <- blogID
	<-g.release
	return g.fakeSource.SitePlans(ctx, blogID)
}

func (g *gatedSource) wait(t *testing.T) int64 {
	t.Helper()
	select {
	case id := <-g.entered:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a refresh to start")
		return 0
	}
}

func (g *gatedSource) open() {
	g.release <- struct{}{}
}

type memRepo struct {
	mu        sync.Mutex
	globals   map[int64]models.GlobalPlan
	sites     map[int64]models.Site
	sitePlans map[int64][]models.SitePlan
}

func newMemRepo() *memRepo {
	return &memRepo{
		globals:   make(map[int64]models.GlobalPlan),
		sites:     make(map[int64]models.Site),
		sitePlans: make(map[int64][]models.SitePlan),
	}
}

func (r *memRepo) ListGlobal(ctx context.Context) ([]models.GlobalPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.GlobalPlan, 0, len(r.globals))
	for _, g := range r.globals {
		out = append(out, g)
	}
	return out, nil
}

func (r *memRepo) UpsertGlobal(ctx context.Context, list []models.GlobalPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.globals)
	for _, g := range list {
		r.globals[g.ProductID] = g
	}
	return nil
}

func (r *memRepo) GetSite(ctx context.Context, userID string, blogID int64) (*models.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[blogID]
	if !ok || s.UserID == nil || *s.UserID != userID {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (r *memRepo) ClaimSite(ctx context.Context, site *models.Site) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sites[site.BlogID]
	if ok && existing.UserID != nil && (site.UserID == nil || *existing.UserID != *site.UserID) {
		return false, nil
	}
	existing.BlogID = site.BlogID
	existing.UserID = site.UserID
	existing.Name = site.Name
	existing.URL = site.URL
	r.sites[site.BlogID] = existing
	return true, nil
}

func (r *memRepo) UpsertSite(ctx context.Context, site *models.Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := r.sites[site.BlogID]
	existing.BlogID = site.BlogID
	existing.PlanProductID = site.PlanProductID
	r.sites[site.BlogID] = existing
	return nil
}

func (r *memRepo) ListSiteIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.sites))
	for id := range r.sites {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memRepo) ListSitePlans(ctx context.Context, blogID int64) ([]models.SitePlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SitePlan(nil), r.sitePlans[blogID]...), nil
}

func (r *memRepo) ReplaceSitePlans(ctx context.Context, blogID int64, list []models.SitePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sitePlans[blogID] = append([]models.SitePlan(nil), list...)
	return nil
}

type countingCache struct {
	mu          sync.Mutex
	invalidated int
}

func (c *countingCache) Get(ctx context.Context) ([]models.GlobalPlan, bool, error) {
	return nil, false, nil
}

func (c *countingCache) Set(ctx context.Context, list []models.GlobalPlan) error { return nil }

func (c *countingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	return nil
}

type memState struct {
	mu     sync.Mutex
	states map[int64]*SyncState
}

func newMemState() *memState {
	return &memState{states: make(map[int64]*SyncState)}
}

func (m *memState) RecordSuccess(ctx context.Context, blogID int64, planCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.states[blogID] = &SyncState{BlogID: blogID, LastRunAt: now, LastSuccessAt: &now, Status: StatusCompleted, PlanCount: planCount}
	return nil
}

func (m *memState) RecordFailure(ctx context.Context, blogID int64, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[blogID]
	if !ok {
		st = &SyncState{BlogID: blogID}
		m.states[blogID] = st
	}
	st.LastRunAt = time.Now()
	st.Status = StatusFailed
	st.ErrorMessage = cause.Error()
	return nil
}

func (m *memState) Get(ctx context.Context, blogID int64) (*SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[blogID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func modelsSite(blogID int64) models.Site {
	return models.Site{BlogID: blogID}
}
