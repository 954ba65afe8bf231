package voucher

import (
	"strings"
	"time"

	"storefront-services/internal/model"
)

type Source string

const (
	SourceCoupon    Source = "COUPON"
	SourcePromotion Source = "PROMOTION"
)

type ScopeKind string

const (
	ScopeAll        ScopeKind = "all"
	ScopeCategories ScopeKind = "categories"
	ScopeProducts   ScopeKind = "products"
)

// Scope restricts a candidate to line items. An empty Kind behaves like
// ScopeAll.
type Scope struct {
	Kind ScopeKind
	IDs  []string
}

func AllItems() Scope                { return Scope{Kind: ScopeAll} }
func Categories(ids ...string) Scope { return Scope{Kind: ScopeCategories, IDs: ids} }
func Products(ids ...string) Scope   { return Scope{Kind: ScopeProducts, IDs: ids} }

func scopeFor(appliesTo model.AppliesTo, categoryIDs, productIDs []string) Scope {
	switch appliesTo {
	case model.AppliesToCategories:
		return Categories(categoryIDs...)
	case model.AppliesToProducts:
		return Products(productIDs...)
	default:
		return AllItems()
	}
}

// Matches reports whether at least one scoped id appears among items.
func (s Scope) Matches(items []LineItem) bool {
	if s.Kind == ScopeAll || s.Kind == "" {
		return true
	}
	if len(s.IDs) == 0 {
		return false
	}
	wanted := make(map[string]struct{}, len(s.IDs))
	for _, id := range s.IDs {
		wanted[id] = struct{}{}
	}
	for _, item := range items {
		key := item.ProductID
		if s.Kind == ScopeCategories {
			key = item.CategoryID
		}
		if _, ok := wanted[key]; ok {
			return true
		}
	}
	return false
}

type Candidate struct {
	ID                    string
	Source                Source
	Code                  string
	Name                  string
	Type                  model.DiscountType
	Value                 float64
	Priority              int
	MinOrderAmount        float64
	MaxDiscountAmount     *float64
	StartsAt              *time.Time
	ExpiresAt             *time.Time
	UsageLimit            *int64
	UsedCount             int64
	UsageLimitPerCustomer *int64
	CustomerUsedCount     int64
	Scope                 Scope
	IsActive              bool
}

// Label is what an order stores as the discount name.
func (c Candidate) Label() string {
	if c.Source == SourceCoupon {
		return c.Code
	}
	return c.Name
}

// FromCoupon builds a candidate for a coupon. Coupons carry no priority of
// their own and rank at 0.
func FromCoupon(c model.Coupon, customerUsedCount int64) Candidate {
	return Candidate{
		ID:                    c.ID,
		Source:                SourceCoupon,
		Code:                  NormalizeCode(c.Code),
		Name:                  NormalizeCode(c.Code),
		Type:                  c.Type,
		Value:                 c.Value,
		MinOrderAmount:        c.MinOrderAmount,
		MaxDiscountAmount:     c.MaxDiscountAmount,
		StartsAt:              c.StartsAt,
		ExpiresAt:             c.ExpiresAt,
		UsageLimit:            c.UsageLimit,
		UsedCount:             c.UsedCount,
		UsageLimitPerCustomer: c.UsageLimitPerCustomer,
		CustomerUsedCount:     customerUsedCount,
		Scope:                 scopeFor(c.AppliesTo, c.CategoryIDs, c.ProductIDs),
		IsActive:              c.IsActive,
	}
}

func FromPromotion(p model.Promotion) Candidate {
	return Candidate{
		ID:                p.ID,
		Source:            SourcePromotion,
		Name:              p.Name,
		Type:              p.Type,
		Value:             p.Value,
		Priority:          p.Priority,
		MinOrderAmount:    p.MinOrderAmount,
		MaxDiscountAmount: p.MaxDiscountAmount,
		StartsAt:          p.StartsAt,
		ExpiresAt:         p.ExpiresAt,
		Scope:             scopeFor(p.AppliesTo, p.CategoryIDs, p.ProductIDs),
		IsActive:          p.IsActive,
	}
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
