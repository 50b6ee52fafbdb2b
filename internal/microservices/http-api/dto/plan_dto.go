package dto

import (
	"time"

	"sitehub/internal/core/plans"
	"sitehub/internal/microservices/http-api/models"
)

// ConnectSiteRequest attaches a blog to the caller's account
type ConnectSiteRequest struct {
	Name string `json:"name" binding:"max=200"`
	URL  string `json:"url" binding:"omitempty,url"`
}

type SiteResponse struct {
	BlogID           int64     `json:"blog_id"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	CurrentProductID int64     `json:"current_product_id"`
	CreatedAt        time.Time `json:"created_at"`
}

func FromModelToSiteResponse(s models.Site) SiteResponse {
	return SiteResponse{
		BlogID:           s.BlogID,
		Name:             s.Name,
		URL:              s.URL,
		CurrentProductID: s.PlanProductID,
		CreatedAt:        s.CreatedAt,
	}
}

type SitePlanResponse struct {
	ProductID     int64  `json:"product_id"`
	ProductSlug   string `json:"product_slug"`
	Name          string `json:"name"`
	IsCurrentPlan bool   `json:"is_current_plan"`
}

// SitePlansResponse is the sorted plan list for one site
type SitePlansResponse struct {
	BlogID           int64              `json:"blog_id"`
	CurrentProductID int64              `json:"current_product_id"`
	InitialPosition  int                `json:"initial_position"`
	BillingEnabled   bool               `json:"billing_enabled"`
	Plans            []SitePlanResponse `json:"plans"`
}

func FromCoreSitePlans(list []plans.SitePlan) []SitePlanResponse {
	resp := make([]SitePlanResponse, 0, len(list))
	for _, p := range list {
		resp = append(resp, SitePlanResponse{
			ProductID:     int64(p.ProductID),
			ProductSlug:   p.ProductSlug,
			Name:          p.Name,
			IsCurrentPlan: p.IsCurrentPlan,
		})
	}
	return resp
}
