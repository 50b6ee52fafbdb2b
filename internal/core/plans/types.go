package plans

// SitePlan is a plan as offered to one site
type SitePlan struct {
	ProductID     ProductID `json:"product_id"`
	ProductSlug   string    `json:"product_slug"`
	Name          string    `json:"name"`
	IsCurrentPlan bool      `json:"is_current_plan"`
}

// BillPeriod of a global plan
type BillPeriod string

const (
	BillYearly  BillPeriod = "yearly"
	BillMonthly BillPeriod = "monthly"
)

// GlobalPlan is the catalog entry shared by every site
type GlobalPlan struct {
	ProductID  ProductID  `json:"product_id"`
	Name       string     `json:"name"`
	Rank       Rank       `json:"rank"`
	Price      float64    `json:"price"`
	Currency   string     `json:"currency"`
	BillPeriod BillPeriod `json:"bill_period"`
}

// GlobalPlans resolves the catalog entry for a site plan
type GlobalPlans interface {
	GlobalPlan(id ProductID) (GlobalPlan, bool)
}

// GlobalPlanSet is an in-memory GlobalPlans that is also a Catalog
type GlobalPlanSet map[ProductID]GlobalPlan

func NewGlobalPlanSet(list []GlobalPlan) GlobalPlanSet {
	set := make(GlobalPlanSet, len(list))
	for _, p := range list {
		set[p.ProductID] = p
	}
	return set
}

func (s GlobalPlanSet) GlobalPlan(id ProductID) (GlobalPlan, bool) {
	p, ok := s[id]
	return p, ok
}

func (s GlobalPlanSet) RankOf(id ProductID) (Rank, bool) {
	p, ok := s[id]
	if !ok {
		return 0, false
	}
	return p.Rank, true
}
