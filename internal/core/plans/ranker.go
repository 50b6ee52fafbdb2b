package plans

import (
	"errors"
	"fmt"
	"slices"
)

// ProductID identifies a subscription tier in the plans catalog
type ProductID int64

// Rank is the comparative weight of a plan, higher is "bigger"
type Rank int

// Comparison is the outcome of comparing two plans by rank
type Comparison int

const (
	Less    Comparison = -1
	Equal   Comparison = 0
	Greater Comparison = 1
)

func (c Comparison) String() string {
	switch c {
	case Less:
		return "less"
	case Equal:
		return "equal"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}

// ErrUnknownPlan is matched by every UnknownPlanError via errors.Is
var ErrUnknownPlan = errors.New("unknown plan")

// UnknownPlanError is returned when a product id has no entry in the catalog.
// A missing rank is never defaulted.
type UnknownPlanError struct {
	ID ProductID
}

func (e *UnknownPlanError) Error() string {
	return fmt.Sprintf("unknown plan: product %d is not in the catalog", e.ID)
}

func (e *UnknownPlanError) Is(target error) bool {
	return target == ErrUnknownPlan
}

// Catalog maps product ids to ranks.
// Implementations may be backed by a database, a cache or a fixed map.
type Catalog interface {
	RankOf(id ProductID) (Rank, bool)
}

// CatalogMap is an in-memory catalog snapshot
type CatalogMap map[ProductID]Rank

func (m CatalogMap) RankOf(id ProductID) (Rank, bool) {
	r, ok := m[id]
	return r, ok
}

// Ranker orders plans using the ranks of a catalog.
// It keeps no state besides the catalog reference, so it is safe for concurrent use
// as long as the catalog is.
type Ranker struct {
	catalog Catalog
}

func NewRanker(catalog Catalog) *Ranker {
	return &Ranker{catalog: catalog}
}

// RankOf looks up the rank of id at call time
func (r *Ranker) RankOf(id ProductID) (Rank, error) {
	if r.catalog == nil {
		return 0, &UnknownPlanError{ID: id}
	}
	rank, ok := r.catalog.RankOf(id)
	if !ok {
		return 0, &UnknownPlanError{ID: id}
	}
	return rank, nil
}

// Compare orders a relative to b
func (r *Ranker) Compare(a, b ProductID) (Comparison, error) {
	ra, err := r.RankOf(a)
	if err != nil {
		return Equal, err
	}
	rb, err := r.RankOf(b)
	if err != nil {
		return Equal, err
	}
	return compareRanks(ra, rb), nil
}

func compareRanks(a, b Rank) Comparison {
	switch {
	case a > b:
		return Greater
	case a < b:
		return Less
	default:
		return Equal
	}
}

// SortPlans returns a copy of sitePlans sorted by ascending rank.
// The sort is stable and keeps duplicates. If any plan is unknown to the
// catalog nothing is returned.
func (r *Ranker) SortPlans(sitePlans []SitePlan) ([]SitePlan, error) {
	type ranked struct {
		plan SitePlan
		rank Rank
	}

	items := make([]ranked, 0, len(sitePlans))
	for _, p := range sitePlans {
		rank, err := r.RankOf(p.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, ranked{plan: p, rank: rank})
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		return int(compareRanks(a.rank, b.rank))
	})

	sorted := make([]SitePlan, len(items))
	for i, it := range items {
		sorted[i] = it.plan
	}
	return sorted, nil
}

// IsUpgrade reports whether candidate ranks above current.
// A plan is never an upgrade over itself, even when the catalog does not know it.
func (r *Ranker) IsUpgrade(candidate, current ProductID) (bool, error) {
	if candidate == current {
		return false, nil
	}
	cmp, err := r.Compare(candidate, current)
	if err != nil {
		return false, err
	}
	return cmp == Greater, nil
}
