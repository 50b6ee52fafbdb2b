package plans

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNoPlans is returned when a site has no plans to browse
var ErrNoPlans = errors.New("no plans available")

// NoPosition marks "nothing selected"
const NoPosition = -1

// Browser holds the sorted plans of one site and answers the questions the
// plans screen asks while paging through them.
type Browser struct {
	ranker  *Ranker
	plans   []SitePlan
	current ProductID
}

// PurchaseState describes the purchase affordance for one page
type PurchaseState struct {
	Position     int       `json:"position"`
	ProductID    ProductID `json:"product_id"`
	ShowPurchase bool      `json:"show_purchase"`
	DisplayPrice string    `json:"display_price,omitempty"`
}

// Browse sorts sitePlans and prepares them for paging.
// current is the product the site is subscribed to.
func Browse(ranker *Ranker, sitePlans []SitePlan, current ProductID) (*Browser, error) {
	if len(sitePlans) == 0 {
		return nil, ErrNoPlans
	}
	sorted, err := ranker.SortPlans(sitePlans)
	if err != nil {
		return nil, err
	}
	return &Browser{ranker: ranker, plans: sorted, current: current}, nil
}

// Plans returns the sorted plans
func (b *Browser) Plans() []SitePlan {
	out := make([]SitePlan, len(b.plans))
	copy(out, b.plans)
	return out
}

func (b *Browser) Len() int { return len(b.plans) }

func (b *Browser) IsValidPosition(pos int) bool {
	return pos >= 0 && pos < len(b.plans)
}

// PositionOf returns the page holding id, or NoPosition
func (b *Browser) PositionOf(id ProductID) int {
	for i, p := range b.plans {
		if p.ProductID == id {
			return i
		}
	}
	return NoPosition
}

// InitialPosition picks the page to open on. A valid restored position wins,
// otherwise the page of the plan flagged current (the last one if several are).
func (b *Browser) InitialPosition(restored int) int {
	if restored != NoPosition {
		if b.IsValidPosition(restored) {
			return restored
		}
		return NoPosition
	}
	pos := NoPosition
	for _, p := range b.plans {
		if p.IsCurrentPlan {
			pos = b.PositionOf(p.ProductID)
		}
	}
	return pos
}

// PurchaseState decides whether the page at pos offers a purchase
func (b *Browser) PurchaseState(pos int, globals GlobalPlans) (PurchaseState, error) {
	if !b.IsValidPosition(pos) {
		return PurchaseState{}, fmt.Errorf("position %d out of range [0,%d)", pos, len(b.plans))
	}
	sitePlan := b.plans[pos]
	global, ok := globals.GlobalPlan(sitePlan.ProductID)
	if !ok {
		return PurchaseState{}, &UnknownPlanError{ID: sitePlan.ProductID}
	}

	state := PurchaseState{Position: pos, ProductID: sitePlan.ProductID}
	if sitePlan.IsCurrentPlan {
		return state, nil
	}
	show, err := b.ranker.IsUpgrade(sitePlan.ProductID, b.current)
	if err != nil {
		return PurchaseState{}, err
	}
	state.ShowPurchase = show
	if show {
		state.DisplayPrice = DisplayPrice(global)
	}
	return state, nil
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// DisplayPrice formats the price of a plan, e.g. "$99/year"
func DisplayPrice(p GlobalPlan) string {
	if p.Price <= 0 {
		return "Free"
	}

	code := strings.ToUpper(p.Currency)
	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + " "
	}

	var amount string
	if p.Price == math.Trunc(p.Price) {
		amount = fmt.Sprintf("%.0f", p.Price)
	} else {
		amount = fmt.Sprintf("%.2f", p.Price)
	}

	switch p.BillPeriod {
	case BillYearly:
		return symbol + amount + "/year"
	case BillMonthly:
		return symbol + amount + "/month"
	default:
		return symbol + amount
	}
}
