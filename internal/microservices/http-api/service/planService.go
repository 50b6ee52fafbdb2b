package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sitehub/internal/core/plans"
	"sitehub/internal/microservices/http-api/dto"
	"sitehub/internal/microservices/http-api/models"
	"sitehub/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

var ErrRefreshUnavailable = errors.New("plan refresh unavailable")

// PlanRefresher queues a background refresh of a site's plans
type PlanRefresher interface {
	Enqueue(blogID int64) bool
}

// PlanService answers for sites owned by userID only; other blogs are ErrSiteNotFound
type PlanService interface {
	Catalog(ctx context.Context) (plans.GlobalPlanSet, error)
	ConnectSite(ctx context.Context, userID string, blogID int64, req dto.ConnectSiteRequest) (*dto.SiteResponse, error)
	CheckSite(ctx context.Context, userID string, blogID int64) error
	BrowseSite(ctx context.Context, userID string, blogID int64, restoredPosition int) (*dto.SitePlansResponse, error)
	PurchaseState(ctx context.Context, userID string, blogID int64, position int) (plans.PurchaseState, error)
	RequestRefresh(ctx context.Context, userID string, blogID int64) error
}

type planService struct {
	repo           repository.PlanRepository
	cache          repository.CatalogCache
	refresher      PlanRefresher
	billingEnabled bool
	logger         *slog.Logger
}

type PlanServiceOptions struct {
	Cache          repository.CatalogCache
	Refresher      PlanRefresher
	BillingEnabled bool
	Logger         *slog.Logger
}

func NewPlanService(repo repository.PlanRepository, opts PlanServiceOptions) PlanService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &planService{
		repo:           repo,
		cache:          opts.Cache,
		refresher:      opts.Refresher,
		billingEnabled: opts.BillingEnabled,
		logger:         logger,
	}
}

// Catalog returns a snapshot of the global plans, from the cache when possible
func (s *planService) Catalog(ctx context.Context) (plans.GlobalPlanSet, error) {
	if s.cache != nil {
		list, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("catalog_cache_get_failed", "error", err)
		} else if ok {
			return toGlobalPlanSet(list), nil
		}
	}

	list, err := s.repo.ListGlobal(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, list); err != nil {
			s.logger.Warn("catalog_cache_set_failed", "error", err)
		}
	}
	return toGlobalPlanSet(list), nil
}

func toGlobalPlanSet(list []models.GlobalPlan) plans.GlobalPlanSet {
	core := make([]plans.GlobalPlan, 0, len(list))
	for i := range list {
		core = append(core, list[i].ToCore())
	}
	return plans.NewGlobalPlanSet(core)
}

// ConnectSite attaches blogID to userID and queues its first plan refresh
func (s *planService) ConnectSite(ctx context.Context, userID string, blogID int64, req dto.ConnectSiteRequest) (*dto.SiteResponse, error) {
	if userID == "" || blogID <= 0 {
		return nil, ErrInvalidArgument
	}
	site := &models.Site{BlogID: blogID, UserID: &userID, Name: req.Name, URL: req.URL}
	claimed, err := s.repo.ClaimSite(ctx, site)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.logger.Warn("site_claim_rejected", "blog_id", blogID, "user_id", userID)
		return nil, ErrSiteClaimed
	}

	if s.refresher == nil || !s.refresher.Enqueue(blogID) {
		s.logger.Warn("site_initial_refresh_skipped", "blog_id", blogID)
	}
	resp := dto.FromModelToSiteResponse(*site)
	return &resp, nil
}

func (s *planService) site(ctx context.Context, userID string, blogID int64) (*models.Site, error) {
	site, err := s.repo.GetSite(ctx, userID, blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

func (s *planService) CheckSite(ctx context.Context, userID string, blogID int64) error {
	_, err := s.site(ctx, userID, blogID)
	return err
}

func (s *planService) browser(ctx context.Context, userID string, blogID int64) (*plans.Browser, plans.GlobalPlanSet, *models.Site, error) {
	site, err := s.site(ctx, userID, blogID)
	if err != nil {
		return nil, nil, nil, err
	}

	rows, err := s.repo.ListSitePlans(ctx, blogID)
	if err != nil {
		return nil, nil, nil, err
	}
	sitePlans := make([]plans.SitePlan, 0, len(rows))
	for i := range rows {
		sitePlans = append(sitePlans, rows[i].ToCore())
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	b, err := plans.Browse(plans.NewRanker(catalog), sitePlans, plans.ProductID(site.PlanProductID))
	if err != nil {
		var unknown *plans.UnknownPlanError
		if errors.As(err, &unknown) {
			s.logger.Warn("plans_unknown_product", "blog_id", blogID, "product_id", int64(unknown.ID))
		}
		return nil, nil, nil, fmt.Errorf("browse plans for blog %d: %w", blogID, err)
	}
	return b, catalog, site, nil
}

func (s *planService) BrowseSite(ctx context.Context, userID string, blogID int64, restoredPosition int) (*dto.SitePlansResponse, error) {
	b, _, site, err := s.browser(ctx, userID, blogID)
	if err != nil {
		return nil, err
	}
	return &dto.SitePlansResponse{
		BlogID:           blogID,
		CurrentProductID: site.PlanProductID,
		InitialPosition:  b.InitialPosition(restoredPosition),
		BillingEnabled:   s.billingEnabled,
		Plans:            dto.FromCoreSitePlans(b.Plans()),
	}, nil
}

func (s *planService) PurchaseState(ctx context.Context, userID string, blogID int64, position int) (plans.PurchaseState, error) {
	b, catalog, _, err := s.browser(ctx, userID, blogID)
	if err != nil {
		return plans.PurchaseState{}, err
	}
	if !b.IsValidPosition(position) {
		return plans.PurchaseState{}, fmt.Errorf("%w: position %d", ErrInvalidArgument, position)
	}
	state, err := b.PurchaseState(position, catalog)
	if err != nil {
		var unknown *plans.UnknownPlanError
		if errors.As(err, &unknown) {
			s.logger.Warn("plans_global_plan_missing", "blog_id", blogID, "product_id", int64(unknown.ID))
		}
		return plans.PurchaseState{}, err
	}
	return state, nil
}

func (s *planService) RequestRefresh(ctx context.Context, userID string, blogID int64) error {
	if err := s.CheckSite(ctx, userID, blogID); err != nil {
		return err
	}
	if s.refresher == nil {
		return ErrRefreshUnavailable
	}
	if !s.refresher.Enqueue(blogID) {
		return ErrRefreshUnavailable
	}
	return nil
}
