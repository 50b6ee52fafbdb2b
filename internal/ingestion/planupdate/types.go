package planupdate

import (
	"sitehub/internal/core/plans"
	"sitehub/internal/microservices/http-api/models"
)

// APIPlan is one entry of the upstream plans listing
type APIPlan struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name_short"`
	ProductSlug  string  `json:"product_slug"`
	CurrentPlan  bool    `json:"current_plan"`
	RawPrice     float64 `json:"raw_price"`
	CurrencyCode string  `json:"currency_code"`
	BillPeriod   int     `json:"bill_period"` // days, -1 for free plans
}

func (p APIPlan) billPeriod() plans.BillPeriod {
	if p.BillPeriod > 0 && p.BillPeriod < 365 {
		return plans.BillMonthly
	}
	return plans.BillYearly
}

// toGlobalModels ranks the catalog by its upstream order, cheapest first
func toGlobalModels(list []APIPlan) []models.GlobalPlan {
	out := make([]models.GlobalPlan, 0, len(list))
	for i, p := range list {
		currency := p.CurrencyCode
		if currency == "" {
			currency = "USD"
		}
		out = append(out, models.GlobalPlan{
			ProductID:  p.ProductID,
			Name:       p.ProductName,
			Rank:       i,
			Price:      p.RawPrice,
			Currency:   currency,
			BillPeriod: string(p.billPeriod()),
		})
	}
	return out
}

// toSiteModels also returns the product flagged as current, 0 when none is
func toSiteModels(blogID int64, list []APIPlan) ([]models.SitePlan, int64) {
	out := make([]models.SitePlan, 0, len(list))
	var current int64
	for _, p := range list {
		if p.CurrentPlan {
			current = p.ProductID
		}
		out = append(out, models.SitePlan{
			BlogID:        blogID,
			ProductID:     p.ProductID,
			ProductSlug:   p.ProductSlug,
			Name:          p.ProductName,
			IsCurrentPlan: p.CurrentPlan,
		})
	}
	return out, current
}

func toCoreSitePlans(list []models.SitePlan) []plans.SitePlan {
	out := make([]plans.SitePlan, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToCore())
	}
	return out
}
