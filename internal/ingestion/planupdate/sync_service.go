package planupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sitehub/internal/core/plans"
	"sitehub/internal/microservices/http-api/models"
	"sitehub/internal/microservices/http-api/repository"
)

// PlanSource is the upstream the service refreshes from
type PlanSource interface {
	GlobalPlans(ctx context.Context) ([]APIPlan, error)
	SitePlans(ctx context.Context, blogID int64) ([]APIPlan, error)
}

type SyncConfig struct {
	Source  PlanSource
	Repo    repository.PlanRepository
	Cache   repository.CatalogCache // optional
	State   StateStore              // optional
	Bus     *Bus                    // optional
	Workers int
	Logger  *slog.Logger
}

// SyncService refreshes stored plans in the background
type SyncService struct {
	source PlanSource
	repo   repository.PlanRepository
	cache  repository.CatalogCache
	state  StateStore
	bus    *Bus
	logger *slog.Logger

	workers int
	pool    *WorkerPool
	poolMux sync.RWMutex

	// blogs queued or running; a request for a queued blog is folded into
	// it, one for a running blog makes it run again once done
	pendingMu sync.Mutex
	pending   map[int64]*pendingRefresh

	now func() time.Time
}

func NewSyncService(cfg SyncConfig) *SyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}
	return &SyncService{
		source:  cfg.Source,
		repo:    cfg.Repo,
		cache:   cfg.Cache,
		state:   cfg.State,
		bus:     cfg.Bus,
		logger:  logger,
		workers: workers,
		pending: make(map[int64]*pendingRefresh),
		now:     time.Now,
	}
}

type pendingRefresh struct {
	running bool
	again   bool
}

// Start launches the worker pool used by Enqueue
func (s *SyncService) Start(ctx context.Context) {
	s.poolMux.Lock()
	defer s.poolMux.Unlock()
	if s.pool != nil {
		return
	}
	s.pool = NewWorkerPool(ctx, s.workers, s.logger)
	s.pool.Start()
}

// Stop drains the queued refreshes and stops the workers
func (s *SyncService) Stop() {
	s.poolMux.Lock()
	pool := s.pool
	s.pool = nil
	s.poolMux.Unlock()
	if pool != nil {
		pool.Wait()
	}

	// tasks skipped after cancellation never clear their entry
	s.pendingMu.Lock()
	clear(s.pending)
	s.pendingMu.Unlock()
}

// Enqueue schedules a refresh of blogID. It reports false when the service
// is not running or the queue is full.
func (s *SyncService) Enqueue(blogID int64) bool {
	s.poolMux.RLock()
	defer s.poolMux.RUnlock()
	if s.pool == nil {
		return false
	}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if p, ok := s.pending[blogID]; ok {
		if p.running {
			p.again = true
		}
		return true
	}

	p := &pendingRefresh{}
	s.pending[blogID] = p
	ok := s.pool.TrySubmit(func(ctx context.Context) error {
		return s.runPending(ctx, blogID, p)
	})
	if !ok {
		delete(s.pending, blogID)
		s.logger.Warn("plan_refresh_rejected", "blog_id", blogID)
	}
	return ok
}

func (s *SyncService) runPending(ctx context.Context, blogID int64, p *pendingRefresh) error {
	var err error
	for {
		s.pendingMu.Lock()
		p.running = true
		p.again = false
		s.pendingMu.Unlock()

		err = s.Refresh(ctx, blogID)

		s.pendingMu.Lock()
		if !p.again || ctx.Err() != nil {
			if s.pending[blogID] == p {
				delete(s.pending, blogID)
			}
			s.pendingMu.Unlock()
			return err
		}
		s.pendingMu.Unlock()
	}
}

// Refresh pulls the catalog and the plans of blogID from upstream and stores them
func (s *SyncService) Refresh(ctx context.Context, blogID int64) error {
	start := s.now()
	err := s.refresh(ctx, blogID)
	if err != nil {
		s.logger.Error("plan_refresh_failed", "blog_id", blogID, "error", err)
		if s.state != nil {
			if serr := s.state.RecordFailure(ctx, blogID, err); serr != nil {
				s.logger.Warn("plan_sync_state_failed", "blog_id", blogID, "error", serr)
			}
		}
		s.bus.Publish(PlansUpdateFailed{BlogID: blogID, Err: err})
		return err
	}
	s.logger.Info("plan_refresh_completed", "blog_id", blogID, "duration", s.now().Sub(start))
	return nil
}

func (s *SyncService) refresh(ctx context.Context, blogID int64) error {
	catalog, err := s.refreshCatalog(ctx)
	if err != nil {
		return err
	}

	apiPlans, err := s.source.SitePlans(ctx, blogID)
	if err != nil {
		return err
	}
	sitePlans, current := toSiteModels(blogID, apiPlans)

	// listeners get the plans in rank order, same as the plans endpoint
	sorted, err := plans.NewRanker(catalog).SortPlans(toCoreSitePlans(sitePlans))
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceSitePlans(ctx, blogID, sitePlans); err != nil {
		return err
	}
	if err := s.repo.UpsertSite(ctx, &models.Site{BlogID: blogID, PlanProductID: current}); err != nil {
		return err
	}

	if s.state != nil {
		if err := s.state.RecordSuccess(ctx, blogID, len(sitePlans)); err != nil {
			s.logger.Warn("plan_sync_state_failed", "blog_id", blogID, "error", err)
		}
	}
	s.bus.Publish(PlansUpdated{BlogID: blogID, Plans: sorted})
	return nil
}

func (s *SyncService) refreshCatalog(ctx context.Context) (plans.GlobalPlanSet, error) {
	apiPlans, err := s.source.GlobalPlans(ctx)
	if err != nil {
		return nil, err
	}
	if len(apiPlans) == 0 {
		return nil, errors.New("upstream returned an empty plan catalog")
	}
	rows := toGlobalModels(apiPlans)
	if err := s.repo.UpsertGlobal(ctx, rows); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("catalog_cache_invalidate_failed", "error", err)
		}
	}

	core := make([]plans.GlobalPlan, 0, len(rows))
	for i := range rows {
		core = append(core, rows[i].ToCore())
	}
	return plans.NewGlobalPlanSet(core), nil
}

// RefreshAll refreshes every known blog whose last success is older than maxAge.
// A zero maxAge refreshes all of them.
func (s *SyncService) RefreshAll(ctx context.Context, maxAge time.Duration) (refreshed, failed int, err error) {
	ids, err := s.repo.ListSiteIDs(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list sites: %w", err)
	}

	for _, blogID := range ids {
		if ctx.Err() != nil {
			return refreshed, failed, ctx.Err()
		}
		if maxAge > 0 && s.fresh(ctx, blogID, maxAge) {
			continue
		}
		if err := s.Refresh(ctx, blogID); err != nil {
			failed++
			continue
		}
		refreshed++
	}
	return refreshed, failed, nil
}

func (s *SyncService) fresh(ctx context.Context, blogID int64, maxAge time.Duration) bool {
	if s.state == nil {
		return false
	}
	st, err := s.state.Get(ctx, blogID)
	if err != nil || st == nil || st.LastSuccessAt == nil {
		return false
	}
	return s.now().Sub(*st.LastSuccessAt) < maxAge
}

// StartPoller refreshes all known sites every interval until ctx is done
func (s *SyncService) StartPoller(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.logger.Info("plan_poller_started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("plan_poller_stopped")
				return
			case <-ticker.C:
				refreshed, failed, err := s.RefreshAll(ctx, interval/2)
				if err != nil {
					s.logger.Error("plan_poll_failed", "error", err)
					continue
				}
				s.logger.Info("plan_poll_completed", "refreshed", refreshed, "failed", failed)
			}
		}
	}()
}
