package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/pricing"
	"storefront-services/internal/queue"
	"storefront-services/internal/store"
	"storefront-services/internal/voucher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	products   map[string]model.Product
	deals      []model.Deal
	coupons    map[string]model.Coupon
	promotions []model.Promotion
	settings   map[string]any
	uses       map[string]int64
	orders     []model.Order
	increments []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]model.Product{
			"p1": {ID: "p1", Title: "Kurta", Slug: "kurta", CategoryID: "c1", BasePrice: 2000, Stock: 10, IsActive: true, Images: []string{"kurta.jpg"}},
			"p2": {ID: "p2", Title: "Shawl", Slug: "shawl", CategoryID: "c2", BasePrice: 1400, IsActive: true, Variants: []model.Variant{
				{ID: "v1", SKU: "SH-RED", Color: "red", Price: 1500, Stock: 2},
			}},
			"p3": {ID: "p3", Title: "Retired", BasePrice: 900, Stock: 5},
		},
		deals: []model.Deal{{
			ID: "d1", Name: "Spring", Type: model.DiscountPercent, Value: 10, IsActive: true,
			StartsAt: fixedNow.Add(-time.Hour), ExpiresAt: fixedNow.Add(time.Hour), ProductIDs: []string{"p1"},
		}},
		coupons: map[string]model.Coupon{
			"SAVE15": {ID: "c-save15", Code: "SAVE15", Type: model.DiscountPercent, Value: 15, AppliesTo: model.AppliesToAll, IsActive: true},
			"BIGSPEND": {ID: "c-big", Code: "BIGSPEND", Type: model.DiscountFixed, Value: 500, MinOrderAmount: 10000,
				AppliesTo: model.AppliesToAll, IsActive: true},
		},
		promotions: []model.Promotion{{
			ID: "promo1", Name: "Flat 100", Type: model.DiscountFixed, Value: 100, AppliesTo: model.AppliesToAll, IsActive: true,
		}},
		settings: map[string]any{
			"shipping": map[string]any{
				"defaultFee":        200,
				"freeAboveSubtotal": 5000,
				"cityRules": []any{
					map[string]any{"city": "Lahore", "fee": 0},
				},
			},
		},
		uses: map[string]int64{},
	}
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListProducts(context.Context, store.ProductFilter) ([]model.Product, error) {
	return nil, nil
}

func (f *fakeStore) ActiveDeals(_ context.Context, now time.Time) ([]model.Deal, error) {
	out := []model.Deal{}
	for _, d := range f.deals {
		if d.IsActiveAt(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) StorefrontSettings(context.Context) (map[string]any, error) {
	return f.settings, nil
}

func (f *fakeStore) FindCouponByCode(_ context.Context, code string) (model.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return model.Coupon{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ActivePromotions(context.Context, time.Time) ([]model.Promotion, error) {
	return f.promotions, nil
}

func (f *fakeStore) CountCustomerCouponUses(_ context.Context, code, userID string) (int64, error) {
	return f.uses[code+"/"+userID], nil
}

func (f *fakeStore) IncrementCouponUsage(_ context.Context, couponID string) error {
	f.increments = append(f.increments, couponID)
	return nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order *model.Order) error {
	order.ID = "order-1"
	f.orders = append(f.orders, *order)
	return nil
}

func (f *fakeStore) GetOrder(context.Context, string) (model.Order, error) {
	return model.Order{}, store.ErrNotFound
}

func (f *fakeStore) SetOrderStatus(context.Context, string, model.OrderStatus) (model.Order, error) {
	return model.Order{}, store.ErrNotFound
}

func (f *fakeStore) GetReturn(context.Context, string) (model.ReturnRequest, error) {
	return model.ReturnRequest{}, store.ErrNotFound
}

func (f *fakeStore) SetReturnStatus(context.Context, string, model.ReturnStatus) (model.ReturnRequest, error) {
	return model.ReturnRequest{}, store.ErrNotFound
}

type fixedRate float64

func (r fixedRate) PkrPerUsd() float64 { return float64(r) }

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	events []published
}

func (p *recordingPublisher) Emit(_ context.Context, key string, payload any) error {
	p.events = append(p.events, published{key, payload})
	return nil
}

func newTestService(st *fakeStore, rate float64, pub Publisher) *Service {
	svc := NewService(st, fixedRate(rate), pub, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func cart() []Line {
	return []Line{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", VariantID: "v1", Quantity: 1},
	}
}

func TestQuoteCouponBeatsSmallerPromotion(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: cart(), CouponCode: " save15 ", City: "Karachi"})
	require.NoError(t, err)

	require.Len(t, q.Lines, 2)
	assert.Equal(t, 1800.0, q.Lines[0].UnitPrice)
	assert.Equal(t, "10% OFF", q.Lines[0].DealLabel)
	assert.Equal(t, 1500.0, q.Lines[1].UnitPrice)
	assert.Equal(t, 5100.0, q.ItemsSubtotal)

	require.NotNil(t, q.Discount)
	assert.Equal(t, voucher.SourceCoupon, q.Discount.Source)
	assert.Equal(t, "SAVE15", q.Discount.Code)
	assert.Equal(t, 765.0, q.DiscountAmount)
	require.NotNil(t, q.Coupon)
	assert.True(t, q.Coupon.Applied)

	// shipping is charged on the discounted subtotal
	assert.Equal(t, 4335.0, q.DiscountedSubtotal)
	assert.Equal(t, 200.0, q.ShippingAmount)
	assert.Equal(t, 0.0, q.TaxAmount)
	assert.Equal(t, 4535.0, q.TotalAmount)
	assert.Equal(t, currency.PKR, q.Currency)
	assert.Nil(t, q.PkrPerUsd)
	assert.Equal(t, "Rs 4,535", q.Display.Total)
}

func TestQuoteVariantPriceMatchesCatalog(t *testing.T) {
	st := newFakeStore()
	st.products["p4"] = model.Product{ID: "p4", Title: "Lawn Suit", BasePrice: 100, IsActive: true, Variants: []model.Variant{
		{ID: "v4", SKU: "LS-M", Price: 1000, Stock: 5},
	}}
	window := func(d model.Deal) model.Deal {
		d.IsActive, d.StartsAt, d.ExpiresAt, d.ProductIDs = true, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour), []string{"p4"}
		return d
	}
	st.deals = append(st.deals,
		window(model.Deal{ID: "pct", Type: model.DiscountPercent, Value: 20}),
		window(model.Deal{ID: "fix", Type: model.DiscountFixed, Value: 50}),
	)
	svc := newTestService(st, 280, nil)

	deals, err := st.ActiveDeals(context.Background(), fixedNow)
	require.NoError(t, err)
	listed := pricing.ForProduct(st.products["p4"], deals, fixedNow)
	require.Len(t, listed.Variants, 1)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: []Line{{ProductID: "p4", VariantID: "v4", Quantity: 1}}})
	require.NoError(t, err)
	require.Len(t, q.Lines, 1)

	assert.Equal(t, 800.0, listed.Variants[0].Price)
	assert.Equal(t, listed.Variants[0].Price, q.Lines[0].UnitPrice)
	assert.Equal(t, "pct", q.Lines[0].DealID)
	assert.Equal(t, listed.Variants[0].DealLabel, q.Lines[0].DealLabel)
}

func TestQuoteInvalidCouponFallsBackToPromotion(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: cart(), CouponCode: "NOPE", City: "Lahore"})
	require.NoError(t, err)

	require.NotNil(t, q.Coupon)
	assert.False(t, q.Coupon.Applied)
	assert.Equal(t, voucher.ErrVoucherNotFound, q.Coupon.Error)
	require.NotNil(t, q.Discount)
	assert.Equal(t, voucher.SourcePromotion, q.Discount.Source)
	assert.Equal(t, "Flat 100", q.Discount.Name)
	assert.Equal(t, 100.0, q.DiscountAmount)
	assert.Equal(t, 0.0, q.ShippingAmount)
	require.NotNil(t, q.Shipping.MatchedCity)
	assert.Equal(t, "Lahore", *q.Shipping.MatchedCity)
}

func TestQuoteMinOrderCouponReported(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: cart(), CouponCode: "BIGSPEND"})
	require.NoError(t, err)
	assert.Equal(t, voucher.ErrVoucherMinOrderNotMet, q.Coupon.Error)
	assert.Equal(t, voucher.SourcePromotion, q.Discount.Source)
}

func TestQuoteUSDDisplay(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: []Line{{ProductID: "p1", Quantity: 1}}, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, currency.USD, q.Currency)
	require.NotNil(t, q.PkrPerUsd)
	assert.Equal(t, 280.0, *q.PkrPerUsd)
	// 1800 - 100 promotion + 200 shipping
	assert.Equal(t, 1900.0, q.TotalAmount)
	assert.Equal(t, "$6.79", q.Display.Total)

	svc = newTestService(newFakeStore(), 0, nil)
	q, err = svc.Quote(context.Background(), QuoteRequest{Items: []Line{{ProductID: "p1", Quantity: 1}}, Currency: "USD"})
	require.NoError(t, err)
	assert.Nil(t, q.PkrPerUsd)
	assert.Equal(t, currency.Unavailable, q.Display.Total)
}

func TestQuoteLineErrors(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	tests := []struct {
		name string
		line Line
		code ErrorCode
	}{
		{"unknown product", Line{ProductID: "missing", Quantity: 1}, ErrProductUnavailable},
		{"inactive product", Line{ProductID: "p3", Quantity: 1}, ErrProductUnavailable},
		{"variant required", Line{ProductID: "p2", Quantity: 1}, ErrVariantRequired},
		{"variant stock", Line{ProductID: "p2", VariantID: "v1", Quantity: 3}, ErrOutOfStock},
		{"product stock", Line{ProductID: "p1", Quantity: 11}, ErrOutOfStock},
		{"zero quantity", Line{ProductID: "p1", Quantity: 0}, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Quote(context.Background(), QuoteRequest{Items: []Line{tt.line}})
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.code, cerr.Code)
		})
	}
}

func placeRequest(code string) PlaceOrderRequest {
	return PlaceOrderRequest{
		QuoteRequest: QuoteRequest{Items: cart(), CouponCode: code, CustomerID: "u1"},
		ShippingAddress: model.ShippingAddress{
			FullName: "Ayesha Khan", Phone: "03001234567", AddressLine1: "12 Mall Road",
			City: "Karachi", State: "Sindh", PostalCode: "74000", Country: "PK",
		},
		PaymentMethod: "COD",
	}
}

func TestPlaceOrderSnapshotsCoupon(t *testing.T) {
	st := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(st, 280, pub)

	order, err := svc.PlaceOrder(context.Background(), placeRequest("SAVE15"))
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "SAVE15", order.CouponCode)
	assert.Equal(t, 765.0, order.CouponDiscountAmount)
	assert.Empty(t, order.PromotionID)
	assert.Equal(t, 4535.0, order.TotalAmount)
	assert.Equal(t, model.OrderPending, order.OrderStatus)
	assert.Equal(t, model.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, "PKR", order.Currency)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "SH-RED", order.Items[1].VariantSKU)

	assert.Equal(t, []string{"c-save15"}, st.increments)
	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.RKOrderCreated, pub.events[0].key)
	event := pub.events[0].payload.(queue.OrderCreatedEvent)
	assert.Equal(t, []string{"p1", "p2"}, event.ProductIDs)
}

func TestPlaceOrderSnapshotsPromotion(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, 280, nil)

	order, err := svc.PlaceOrder(context.Background(), placeRequest(""))
	require.NoError(t, err)
	assert.Equal(t, "promo1", order.PromotionID)
	assert.Equal(t, "Flat 100", order.PromotionName)
	assert.Equal(t, 100.0, order.PromotionDiscountAmount)
	assert.Empty(t, st.increments)
}

func TestPlaceOrderRejectsBadCoupon(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, 280, nil)

	_, err := svc.PlaceOrder(context.Background(), placeRequest("BIGSPEND"))
	var verr *voucher.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, voucher.ErrVoucherMinOrderNotMet, verr.Code)
	assert.Empty(t, st.orders)
}

func TestPlaceOrderUSDNeedsRate(t *testing.T) {
	svc := newTestService(newFakeStore(), 0, nil)
	req := placeRequest("")
	req.Currency = currency.USD

	_, err := svc.PlaceOrder(context.Background(), req)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrCurrencyUnavailable, cerr.Code)
}

func TestPlaceOrderGuestNeedsEmail(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)
	req := placeRequest("")
	req.CustomerID = ""

	_, err := svc.PlaceOrder(context.Background(), req)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ErrInvalidRequest, cerr.Code)

	req.GuestEmail = "Guest@Example.com"
	order, err := svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", order.GuestEmail)
}

func TestValidateCoupon(t *testing.T) {
	svc := newTestService(newFakeStore(), 280, nil)

	res, err := svc.ValidateCoupon(context.Background(), QuoteRequest{Items: cart(), CouponCode: "save15"})
	require.NoError(t, err)
	assert.Equal(t, 765.0, res.DiscountAmount)

	_, err = svc.ValidateCoupon(context.Background(), QuoteRequest{Items: cart(), CouponCode: ""})
	var verr *voucher.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, voucher.ErrVoucherCodeRequired, verr.Code)
}

func TestCustomerCouponLimit(t *testing.T) {
	st := newFakeStore()
	limit := int64(1)
	c := st.coupons["SAVE15"]
	c.UsageLimitPerCustomer = &limit
	st.coupons["SAVE15"] = c
	st.uses["SAVE15/u1"] = 1
	svc := newTestService(st, 280, nil)

	q, err := svc.Quote(context.Background(), QuoteRequest{Items: cart(), CouponCode: "SAVE15", CustomerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, voucher.ErrVoucherCustomerLimit, q.Coupon.Error)

	q, err = svc.Quote(context.Background(), QuoteRequest{Items: cart(), CouponCode: "SAVE15"})
	require.NoError(t, err)
	assert.True(t, q.Coupon.Applied)
}
