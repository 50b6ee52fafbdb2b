package repository

import (
	"context"
	"fmt"

	"sitehub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository interface {
	ListGlobal(ctx context.Context) ([]models.GlobalPlan, error)
	UpsertGlobal(ctx context.Context, list []models.GlobalPlan) error

	// GetSite only finds blogs claimed by userID
	GetSite(ctx context.Context, userID string, blogID int64) (*models.Site, error)
	ClaimSite(ctx context.Context, site *models.Site) (bool, error)
	UpsertSite(ctx context.Context, site *models.Site) error
	ListSiteIDs(ctx context.Context) ([]int64, error)

	ListSitePlans(ctx context.Context, blogID int64) ([]models.SitePlan, error)
	ReplaceSitePlans(ctx context.Context, blogID int64, list []models.SitePlan) error
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) ListGlobal(ctx context.Context) ([]models.GlobalPlan, error) {
	var list []models.GlobalPlan
	if err := r.db.WithContext(ctx).Order("rank ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list global plans: %w", err)
	}
	return list, nil
}

// UpsertGlobal makes list the whole catalog: products missing from it are removed
func (r *planRepository) UpsertGlobal(ctx context.Context, list []models.GlobalPlan) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ProductID)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id NOT IN ?", ids).Delete(&models.GlobalPlan{}).Error; err != nil {
			return fmt.Errorf("prune global plans: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "rank", "price", "currency", "bill_period", "updated_at"}),
		}).Create(&list).Error
		if err != nil {
			return fmt.Errorf("upsert global plans: %w", err)
		}
		return nil
	})
}

func (r *planRepository) GetSite(ctx context.Context, userID string, blogID int64) (*models.Site, error) {
	var site models.Site
	if err := r.db.WithContext(ctx).Where("blog_id = ? AND user_id = ?", blogID, userID).First(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

// ClaimSite attaches the blog to site.UserID. It reports false when another
// user already owns it; a blog the sync created without an owner can be claimed.
func (r *planRepository) ClaimSite(ctx context.Context, site *models.Site) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blog_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "name", "url"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "sites.user_id IS NULL OR sites.user_id = excluded.user_id"},
		}},
	}).Create(site)
	if res.Error != nil {
		return false, fmt.Errorf("claim site %d: %w", site.BlogID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *planRepository) UpsertSite(ctx context.Context, site *models.Site) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blog_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_product_id"}),
	}).Create(site).Error
	if err != nil {
		return fmt.Errorf("upsert site %d: %w", site.BlogID, err)
	}
	return nil
}

func (r *planRepository) ListSiteIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&models.Site{}).Order("blog_id").Pluck("blog_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list site ids: %w", err)
	}
	return ids, nil
}

// ListSitePlans returns the plans in storage order; callers sort by rank
func (r *planRepository) ListSitePlans(ctx context.Context, blogID int64) ([]models.SitePlan, error) {
	var list []models.SitePlan
	if err := r.db.WithContext(ctx).Where("blog_id = ?", blogID).Order("id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list site plans: %w", err)
	}
	return list, nil
}

// ReplaceSitePlans swaps the plans of a blog in one transaction
func (r *planRepository) ReplaceSitePlans(ctx context.Context, blogID int64, list []models.SitePlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", blogID).Delete(&models.SitePlan{}).Error; err != nil {
			return fmt.Errorf("clear site plans: %w", err)
		}
		if len(list) == 0 {
			return nil
		}
		for i := range list {
			list[i].ID = 0
			list[i].BlogID = blogID
		}
		if err := tx.Create(&list).Error; err != nil {
			return fmt.Errorf("insert site plans: %w", err)
		}
		return nil
	})
}
