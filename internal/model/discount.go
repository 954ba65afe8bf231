package model

import "time"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountFixed
}

type AppliesTo string

const (
	AppliesToAll        AppliesTo = "all"
	AppliesToCategories AppliesTo = "categories"
	AppliesToProducts   AppliesTo = "products"
)

type Deal struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Type       DiscountType `json:"type"`
	Value      float64      `json:"value"`
	Priority   int          `json:"priority"`
	StartsAt   time.Time    `json:"startsAt"`
	ExpiresAt  time.Time    `json:"expiresAt"`
	ProductIDs []string     `json:"productIds"`
	IsActive   bool         `json:"isActive"`
}

// IsActiveAt reports whether the deal window contains now. Both bounds are
// inclusive.
func (d Deal) IsActiveAt(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	return !now.Before(d.StartsAt) && !now.After(d.ExpiresAt)
}

func (d Deal) Covers(productID string) bool {
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type Coupon struct {
	ID                    string       `json:"id"`
	Code                  string       `json:"code"`
	Type                  DiscountType `json:"type"`
	Value                 float64      `json:"value"`
	MinOrderAmount        float64      `json:"minOrderAmount"`
	MaxDiscountAmount     *float64     `json:"maxDiscountAmount,omitempty"`
	StartsAt              *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt             *time.Time   `json:"expiresAt,omitempty"`
	UsageLimit            *int64       `json:"usageLimit,omitempty"`
	UsageLimitPerCustomer *int64       `json:"usageLimitPerCustomer,omitempty"`
	UsedCount             int64        `json:"usedCount"`
	AppliesTo             AppliesTo    `json:"appliesTo"`
	CategoryIDs           []string     `json:"categoryIds"`
	ProductIDs            []string     `json:"productIds"`
	IsActive              bool         `json:"isActive"`
}

type Promotion struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Type              DiscountType `json:"type"`
	Value             float64      `json:"value"`
	MinOrderAmount    float64      `json:"minOrderAmount"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty"`
	Priority          int          `json:"priority"`
	StartsAt          *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt         *time.Time   `json:"expiresAt,omitempty"`
	AppliesTo         AppliesTo    `json:"appliesTo"`
	CategoryIDs       []string     `json:"categoryIds"`
	ProductIDs        []string     `json:"productIds"`
	IsActive          bool         `json:"isActive"`
}
