// Package store defines the persistence ports used by the storefront
// services. Backends live in the mongostore and pgstore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"storefront-services/internal/model"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")
	ErrInvalidID = errors.New("store: invalid id")
)

type ProductFilter struct {
	IDs          []string
	CategorySlug string
	ActiveOnly   bool
	Limit        int
}

type Catalog interface {
	GetProduct(ctx context.Context, id string) (model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	ActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error)
}

type Settings interface {
	// StorefrontSettings returns the raw settings document, or nil when none
	// has been saved.
	StorefrontSettings(ctx context.Context) (map[string]any, error)
}

type Discounts interface {
	FindCouponByCode(ctx context.Context, code string) (model.Coupon, error)
	ActivePromotions(ctx context.Context, now time.Time) ([]model.Promotion, error)
	CountCustomerCouponUses(ctx context.Context, code, userID string) (int64, error)
	IncrementCouponUsage(ctx context.Context, couponID string) error
}

type Orders interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	// SetOrderStatus returns the order as it was before the update.
	SetOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error)
	GetReturn(ctx context.Context, id string) (model.ReturnRequest, error)
	// SetReturnStatus returns the request as it was before the update.
	SetReturnStatus(ctx context.Context, id string, status model.ReturnStatus) (model.ReturnRequest, error)
}

type ProductCount struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type SoldCountUpdate struct {
	ProductID string `json:"productId"`
	SoldCount int64  `json:"soldCount"`
}

type BulkError struct {
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Message   string `json:"message"`
}

type BulkResult struct {
	Matched  int64       `json:"matched"`
	Modified int64       `json:"modified"`
	Errors   []BulkError `json:"errors"`
}

type Sales interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
	// DeliveredQuantity sums item quantities for productID across
	// Delivered orders.
	DeliveredQuantity(ctx context.Context, productID string) (int64, error)
	// ReturnedQuantity sums, for every completed return of productID, the
	// quantities of the referenced order's items matching the return's
	// product and variant.
	ReturnedQuantity(ctx context.Context, productID string) (int64, error)
	SetSoldCount(ctx context.Context, productID string, soldCount int64) error

	DeliveredQuantities(ctx context.Context) ([]ProductCount, error)
	ReturnedQuantities(ctx context.Context) ([]ProductCount, error)
	ProductsWithSoldCount(ctx context.Context) ([]string, error)
	// BulkSetSoldCounts applies all updates without stopping at the first
	// failure. Per-update failures land in BulkResult.Errors.
	BulkSetSoldCounts(ctx context.Context, updates []SoldCountUpdate) (BulkResult, error)
}

type RatingStats struct {
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

type ReviewPatch struct {
	Rating   *int
	Comment  *string
	IsHidden *bool
}

type Reviews interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReview(ctx context.Context, id string) (model.Review, error)
	// UpdateReview returns the review before and after the patch.
	UpdateReview(ctx context.Context, id string, patch ReviewPatch) (model.Review, model.Review, error)
	DeleteReview(ctx context.Context, id string) (model.Review, error)
	VisibleRatingStats(ctx context.Context, productID string) (RatingStats, error)
	SetRatingStats(ctx context.Context, productID string, stats RatingStats) error
}

type Store interface {
	Catalog
	Settings
	Discounts
	Orders
	Sales
	Reviews
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
