package memstore

import (
	"context"
	"testing"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/reviews"
	"storefront-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsOrderAndFilters(t *testing.T) {
	s := New()
	s.PutProduct(model.Product{ID: "a", SoldCount: 1, IsActive: true, CategorySlug: "shoes"})
	s.PutProduct(model.Product{ID: "b", SoldCount: 5, IsActive: true, CategorySlug: "bags"})
	s.PutProduct(model.Product{ID: "c", SoldCount: 5, IsActive: false, CategorySlug: "shoes"})

	ctx := context.Background()
	all, err := s.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	ids := []string{}
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)

	active, err := s.ListProducts(ctx, store.ProductFilter{CategorySlug: "shoes", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	none, err := s.ListProducts(ctx, store.ProductFilter{IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	limited, err := s.ListProducts(ctx, store.ProductFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestActiveDealsWindow(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := New()
	s.PutDeal(model.Deal{ID: "live", IsActive: true, StartsAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), Priority: 1})
	s.PutDeal(model.Deal{ID: "edge", IsActive: true, StartsAt: now, ExpiresAt: now, Priority: 2})
	s.PutDeal(model.Deal{ID: "off", IsActive: false, StartsAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)})
	s.PutDeal(model.Deal{ID: "done", IsActive: true, StartsAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)})

	deals, err := s.ActiveDeals(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "edge", deals[0].ID)
	assert.Equal(t, "live", deals[1].ID)
}

func TestCouponLookupAndUsage(t *testing.T) {
	s := New()
	id := s.PutCoupon(model.Coupon{Code: " save10 ", IsActive: true})
	s.PutOrder(model.Order{UserID: "u1", CouponCode: "SAVE10", OrderStatus: model.OrderDelivered})
	s.PutOrder(model.Order{UserID: "u1", CouponCode: "SAVE10", OrderStatus: model.OrderCancelled})
	s.PutOrder(model.Order{UserID: "u2", CouponCode: "SAVE10", OrderStatus: model.OrderPending})

	ctx := context.Background()
	c, err := s.FindCouponByCode(ctx, "Save10")
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)

	_, err = s.FindCouponByCode(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.CountCustomerCouponUses(ctx, "save10", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.IncrementCouponUsage(ctx, id))
	c, _ = s.FindCouponByCode(ctx, "SAVE10")
	assert.Equal(t, int64(1), c.UsedCount)
}

func TestOrderStatusReturnsBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	order := &model.Order{OrderStatus: model.OrderPending}
	require.NoError(t, s.CreateOrder(ctx, order))
	require.NotEmpty(t, order.ID)
	assert.False(t, order.CreatedAt.IsZero())

	before, err := s.SetOrderStatus(ctx, order.ID, model.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, before.OrderStatus)

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, got.OrderStatus)

	_, err = s.SetOrderStatus(ctx, "missing", model.OrderDelivered)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSoldCountQuantities(t *testing.T) {
	s := New()
	s.PutProduct(model.Product{ID: "p1"})
	s.PutOrder(model.Order{ID: "o1", OrderStatus: model.OrderDelivered, Items: []model.OrderItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 2},
		{ProductID: "p1", VariantID: "v2", Quantity: 3},
	}})
	s.PutOrder(model.Order{ID: "o2", OrderStatus: model.OrderShipped, Items: []model.OrderItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 9},
	}})
	s.PutReturn(model.ReturnRequest{OrderID: "o1", ProductID: "p1", VariantID: "v1", Status: model.ReturnCompleted})
	s.PutReturn(model.ReturnRequest{OrderID: "gone", ProductID: "p1", VariantID: "v1", Status: model.ReturnCompleted})

	ctx := context.Background()
	delivered, err := s.DeliveredQuantity(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), delivered)

	returned, err := s.ReturnedQuantity(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), returned)

	_, err = s.ProductExists(ctx, "")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestBulkSetSoldCountsDoesNotInsert(t *testing.T) {
	s := New()
	s.PutProduct(model.Product{ID: "p1", SoldCount: 3})
	s.PutProduct(model.Product{ID: "p2", SoldCount: 1})
	s.FailSoldCount["p2"] = true

	res, err := s.BulkSetSoldCounts(context.Background(), []store.SoldCountUpdate{
		{ProductID: "p1", SoldCount: 3},
		{ProductID: "p2", SoldCount: 0},
		{ProductID: "ghost", SoldCount: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Matched)
	assert.Equal(t, int64(0), res.Modified)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)

	_, err = s.GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	ids, err := s.ProductsWithSoldCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
}

func TestReviewsLifecycle(t *testing.T) {
	s := New()
	s.PutProduct(model.Product{ID: "p1"})
	ctx := context.Background()

	r1 := &model.Review{ProductID: "p1", OrderID: "o1", UserID: "u1", Rating: 5}
	require.NoError(t, s.CreateReview(ctx, r1))
	dup := &model.Review{ProductID: "p1", OrderID: "o1", UserID: "u1", Rating: 1}
	assert.ErrorIs(t, s.CreateReview(ctx, dup), store.ErrDuplicate)
	require.NoError(t, s.CreateReview(ctx, &model.Review{ProductID: "p1", OrderID: "o2", UserID: "u1", Rating: 2}))

	stats, err := s.VisibleRatingStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, store.RatingStats{Avg: 3.5, Count: 2}, stats)

	hidden := true
	before, after, err := s.UpdateReview(ctx, r1.ID, store.ReviewPatch{IsHidden: &hidden})
	require.NoError(t, err)
	assert.False(t, before.IsHidden)
	assert.True(t, after.IsHidden)

	stats, err = s.VisibleRatingStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, store.RatingStats{Avg: 2, Count: 1}, stats)

	require.NoError(t, s.SetRatingStats(ctx, "p1", stats))
	p, _ := s.GetProduct(ctx, "p1")
	assert.Equal(t, 2.0, p.RatingAvg)
	assert.Equal(t, 2.0, p.AverageRating)
	assert.Equal(t, int64(1), p.RatingCount)
	assert.Equal(t, int64(1), p.ReviewsCount)

	deleted, err := s.DeleteReview(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, deleted.ID)
	_, err = s.GetReview(ctx, r1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVisibleRatingStatsMatchesAggregate(t *testing.T) {
	s := New()
	ctx := context.Background()

	stats, err := s.VisibleRatingStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, reviews.Aggregate(nil), stats)

	all := []model.Review{
		{ProductID: "p1", OrderID: "o1", UserID: "u1", Rating: 4},
		{ProductID: "p1", OrderID: "o2", UserID: "u1", Rating: 1, IsHidden: true},
		{ProductID: "p1", OrderID: "o3", UserID: "u2", Rating: 5},
		{ProductID: "p2", OrderID: "o1", UserID: "u1", Rating: 1},
	}
	for i := range all {
		r := all[i]
		require.NoError(t, s.CreateReview(ctx, &r))
	}

	stats, err = s.VisibleRatingStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, reviews.Aggregate(all[:3]), stats)
	assert.Equal(t, store.RatingStats{Avg: 4.5, Count: 2}, stats)
}

func TestSettingsCopy(t *testing.T) {
	s := New()
	doc, err := s.StorefrontSettings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)

	s.SetSettings(map[string]any{"shipping": map[string]any{"defaultFee": 200}})
	doc, err = s.StorefrontSettings(context.Background())
	require.NoError(t, err)
	doc["extra"] = true
	again, _ := s.StorefrontSettings(context.Background())
	_, leaked := again["extra"]
	assert.False(t, leaked)
}
