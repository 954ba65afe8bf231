package pricing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/utils"
)

// Price applies a percent or fixed discount to original. Negative inputs are
// treated as 0, percent values above 100 as 100, and the result never drops
// below 0. The result is rounded to 2 decimals.
func Price(original float64, discountType model.DiscountType, value float64) float64 {
	original = utils.NonNegative(original)
	value = utils.NonNegative(value)

	if discountType == model.DiscountPercent {
		pct := math.Min(100, value)
		return utils.Round2(math.Max(0, original*(1-pct/100)))
	}
	return utils.Round2(math.Max(0, original-value))
}

// Label renders "25% OFF" or "PKR 300 OFF".
func Label(discountType model.DiscountType, value float64) string {
	return LabelIn(discountType, value, currency.Canonical)
}

func LabelIn(discountType model.DiscountType, value float64, code currency.Code) string {
	rounded := int64(utils.Round(utils.NonNegative(value), 0))
	if discountType == model.DiscountPercent {
		return fmt.Sprintf("%d%% OFF", rounded)
	}
	return fmt.Sprintf("%s %d OFF", code, rounded)
}

// BestDeal picks the deal that applies to productID at now. Higher priority
// wins; ties go to the lower resulting price, then the earlier expiry, then
// the order of deals.
func BestDeal(deals []model.Deal, productID string, original float64, now time.Time) (model.Deal, bool) {
	type candidate struct {
		deal  model.Deal
		price float64
		index int
	}

	candidates := make([]candidate, 0, len(deals))
	for i, d := range deals {
		if !d.IsActiveAt(now) || !d.Covers(productID) {
			continue
		}
		candidates = append(candidates, candidate{deal: d, price: Price(original, d.Type, d.Value), index: i})
	}
	if len(candidates) == 0 {
		return model.Deal{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.deal.Priority != b.deal.Priority {
			return a.deal.Priority > b.deal.Priority
		}
		if a.price != b.price {
			return a.price < b.price
		}
		if !a.deal.ExpiresAt.Equal(b.deal.ExpiresAt) {
			return a.deal.ExpiresAt.Before(b.deal.ExpiresAt)
		}
		return a.index < b.index
	})
	return candidates[0].deal, true
}
