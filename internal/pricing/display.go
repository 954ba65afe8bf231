package pricing

import (
	"sort"
	"time"

	"storefront-services/internal/model"
)

type DealInfo struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      model.DiscountType `json:"type"`
	Value     float64            `json:"value"`
	Priority  int                `json:"priority"`
	ExpiresAt *time.Time         `json:"expiresAt"`
	Label     string             `json:"label"`
}

type VariantPrice struct {
	VariantID     string  `json:"variantId"`
	OriginalPrice float64 `json:"originalPrice"`
	Price         float64 `json:"price"`
	DealID        string  `json:"dealId,omitempty"`
	DealLabel     string  `json:"dealLabel,omitempty"`
}

// ProductPrice is what the catalog shows for a product: the deal price when a
// deal is running, otherwise the base price.
type ProductPrice struct {
	BasePrice      float64        `json:"basePrice"`
	CompareAtPrice *float64       `json:"compareAtPrice,omitempty"`
	Price          float64        `json:"price"`
	Deal           *DealInfo      `json:"deal,omitempty"`
	Variants       []VariantPrice `json:"variants,omitempty"`
}

func NewDealInfo(d model.Deal) *DealInfo {
	info := &DealInfo{
		ID:       d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Value:    d.Value,
		Priority: d.Priority,
		Label:    Label(d.Type, d.Value),
	}
	if !d.ExpiresAt.IsZero() {
		expires := d.ExpiresAt
		info.ExpiresAt = &expires
	}
	return info
}

func ForProduct(p model.Product, deals []model.Deal, now time.Time) ProductPrice {
	out := ProductPrice{
		BasePrice:      p.BasePrice,
		CompareAtPrice: p.CompareAtPrice,
		Price:          p.BasePrice,
	}

	deal, ok := BestDeal(deals, p.ID, p.BasePrice, now)
	if ok {
		out.Price = Price(p.BasePrice, deal.Type, deal.Value)
		out.Deal = NewDealInfo(deal)
	}

	// Each variant picks its own deal so the listed price is what checkout
	// charges for that variant.
	for _, v := range p.Variants {
		vp := VariantPrice{VariantID: v.ID, OriginalPrice: v.Price}
		price, vdeal, vok := UnitPrice(p, v.ID, deals, now)
		vp.Price = price
		if vok {
			vp.DealID = vdeal.ID
			vp.DealLabel = Label(vdeal.Type, vdeal.Value)
		}
		out.Variants = append(out.Variants, vp)
	}
	return out
}

// UnitPrice is the price charged for one unit of a variant (or the product
// itself when variantID is empty or unknown), with the deal that produced it.
func UnitPrice(p model.Product, variantID string, deals []model.Deal, now time.Time) (float64, model.Deal, bool) {
	original := p.BasePrice
	if v, found := p.Variant(variantID); found {
		original = v.Price
	}
	deal, ok := BestDeal(deals, p.ID, original, now)
	if !ok {
		return Price(original, model.DiscountFixed, 0), model.Deal{}, false
	}
	return Price(original, deal.Type, deal.Value), deal, true
}

// DealProduct is one entry of the "super deals" strip.
type DealProduct struct {
	Product model.Product
	Price   float64
	Deal    model.Deal
}

// DealProductIDs lists the products covered by any of deals, without
// duplicates, in deal order.
func DealProductIDs(deals []model.Deal) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, d := range deals {
		for _, id := range d.ProductIDs {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// SuperDeals pairs each product with its best running deal, strongest deal
// first: higher priority, then sooner expiry, then more sold.
func SuperDeals(products []model.Product, deals []model.Deal, now time.Time, limit int) []DealProduct {
	out := make([]DealProduct, 0, len(products))
	for _, p := range products {
		deal, ok := BestDeal(deals, p.ID, p.BasePrice, now)
		if !ok {
			continue
		}
		out = append(out, DealProduct{Product: p, Price: Price(p.BasePrice, deal.Type, deal.Value), Deal: deal})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Deal.Priority != b.Deal.Priority {
			return a.Deal.Priority > b.Deal.Priority
		}
		if !a.Deal.ExpiresAt.Equal(b.Deal.ExpiresAt) {
			return a.Deal.ExpiresAt.Before(b.Deal.ExpiresAt)
		}
		return a.Product.SoldCount > b.Product.SoldCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
