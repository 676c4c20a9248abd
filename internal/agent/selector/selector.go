// Package selector implements the deterministic choice between a single
// matching pack and an aggregation of smaller packs for a requested quantity.
package selector

import (
	"errors"
	"fmt"

	"github.com/cartpilot/server/internal/agent/model"
)

// DefaultDominanceThreshold is the factor aggregation must beat the exact
// pack's price by to win. At 0.85 the aggregated cost must be strictly below
// 85% of the exact pack price.
const DefaultDominanceThreshold = 0.85

// ErrNoComparableOffers is returned when no offer can be normalised into the
// requested unit's base.
var ErrNoComparableOffers = errors.New("no comparable offers for requested unit")

type candidate struct {
	offer        model.Offer
	packInBase   float64
	pricePerBase float64
}

// Select picks the best way to cover the requested quantity from the given
// offers. The function is pure: identical (offers, quantity, unit) inputs
// produce identical decisions, with ties broken on price, then source, then
// brand, then pack size.
func Select(offers []model.Offer, quantity float64, unit model.Unit, threshold float64) (model.SelectionDecision, error) {
	var zero model.SelectionDecision
	if quantity <= 0 {
		return zero, fmt.Errorf("requested quantity must be positive, got %v", quantity)
	}
	if threshold <= 0 {
		threshold = DefaultDominanceThreshold
	}

	reqQty, reqBase := model.NormalizeQuantity(quantity, unit)

	candidates := make([]candidate, 0, len(offers))
	for _, o := range offers {
		if o.PackUnit.Base() != reqBase {
			continue
		}
		packInBase, _ := model.NormalizeQuantity(o.PackSize, o.PackUnit)
		candidates = append(candidates, candidate{
			offer:        o,
			packInBase:   packInBase,
			pricePerBase: o.Price / packInBase,
		})
	}
	if len(candidates) == 0 {
		return zero, ErrNoComparableOffers
	}

	// Candidate A: cheapest single pack covering the full request.
	var exact *candidate
	for i := range candidates {
		c := &candidates[i]
		if c.packInBase < reqQty {
			continue
		}
		if exact == nil || lessBy(c, exact, c.offer.Price, exact.offer.Price) {
			exact = c
		}
	}

	// Candidate B: globally best per-unit rate.
	best := &candidates[0]
	for i := 1; i < len(candidates); i++ {
		c := &candidates[i]
		if lessBy(c, best, c.pricePerBase, best.pricePerBase) {
			best = c
		}
	}
	aggregatedCost := best.pricePerBase * reqQty

	if exact == nil {
		return model.SelectionDecision{
			Strategy:   model.StrategyAggregated,
			Chosen:     best.offer,
			TotalPrice: aggregatedCost,
			Rationale:  model.RationaleNoExactPack,
		}, nil
	}

	// When the best rate belongs to the covering pack itself there is no
	// separate aggregation alternative; packs cannot be bought fractionally.
	if best == exact {
		return model.SelectionDecision{
			Strategy:   model.StrategyExactPack,
			Chosen:     exact.offer,
			TotalPrice: exact.offer.Price,
			Rationale:  model.RationaleExactPackPreferred,
		}, nil
	}

	// Aggregation must beat the exact pack strictly below the threshold;
	// anything at or above it keeps the exact pack.
	if aggregatedCost < exact.offer.Price*threshold {
		return model.SelectionDecision{
			Strategy:   model.StrategyAggregated,
			Chosen:     best.offer,
			TotalPrice: aggregatedCost,
			Rationale:  model.RationaleAggregationCheaper,
		}, nil
	}

	return model.SelectionDecision{
		Strategy:   model.StrategyExactPack,
		Chosen:     exact.offer,
		TotalPrice: exact.offer.Price,
		Rationale:  model.RationaleExactPackPreferred,
	}, nil
}

// lessBy orders candidates by a primary value with a stable tie-break on
// source, brand, then pack size, so selection never depends on input order.
func lessBy(a, b *candidate, aVal, bVal float64) bool {
	if aVal != bVal {
		return aVal < bVal
	}
	if a.offer.Source != b.offer.Source {
		return a.offer.Source < b.offer.Source
	}
	if a.offer.Brand != b.offer.Brand {
		return a.offer.Brand < b.offer.Brand
	}
	return a.packInBase < b.packInBase
}
