package models

import (
	"time"

	"sitehub/internal/core/plans"
)

// GlobalPlan is one row of the shared plans catalog
type GlobalPlan struct {
	ProductID  int64     `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	Name       string    `gorm:"not null" json:"name"`
	Rank       int       `gorm:"not null;index" json:"rank"`
	Price      float64   `gorm:"type:decimal(10,2);default:0" json:"price"`
	Currency   string    `gorm:"size:3;default:'USD'" json:"currency"`
	BillPeriod string    `gorm:"default:'yearly'" json:"bill_period"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GlobalPlan) TableName() string {
	return "global_plans"
}

func (p *GlobalPlan) ToCore() plans.GlobalPlan {
	return plans.GlobalPlan{
		ProductID:  plans.ProductID(p.ProductID),
		Name:       p.Name,
		Rank:       plans.Rank(p.Rank),
		Price:      p.Price,
		Currency:   p.Currency,
		BillPeriod: plans.BillPeriod(p.BillPeriod),
	}
}

// SitePlan is a plan offered to one blog
type SitePlan struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlogID        int64     `gorm:"not null;uniqueIndex:idx_blog_product" json:"blog_id"`
	ProductID     int64     `gorm:"not null;uniqueIndex:idx_blog_product" json:"product_id"`
	ProductSlug   string    `json:"product_slug"`
	Name          string    `json:"name"`
	IsCurrentPlan bool      `gorm:"default:false" json:"is_current_plan"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SitePlan) TableName() string {
	return "site_plans"
}

func (p *SitePlan) ToCore() plans.SitePlan {
	return plans.SitePlan{
		ProductID:     plans.ProductID(p.ProductID),
		ProductSlug:   p.ProductSlug,
		Name:          p.Name,
		IsCurrentPlan: p.IsCurrentPlan,
	}
}

// Site is a blog known to the service and the product it is subscribed to
type Site struct {
	BlogID        int64     `gorm:"primaryKey;autoIncrement:false" json:"blog_id"`
	UserID        *string   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	PlanProductID int64     `gorm:"default:0" json:"plan_product_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Site) TableName() string {
	return "sites"
}
