package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-services/internal/auth"
	"storefront-services/internal/checkout"
	"storefront-services/internal/config"
	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/queue"
	"storefront-services/internal/reviews"
	"storefront-services/internal/sales"
	"storefront-services/internal/storage"
	"storefront-services/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret     = "test-jwt-secret"
	testCronSecret = "test-cron-secret"
)

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeArchive) PutObject(_ context.Context, key string, body []byte, _ string, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), body...)
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeArchive) GetObject(_ context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return body, "application/json", nil
}

func (f *fakeArchive) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type harness struct {
	t       *testing.T
	store   *memstore.Store
	rates   *currency.RateCache
	archive *fakeArchive
	router  http.Handler
}

func seed(st *memstore.Store, now time.Time) {
	st.PutProduct(model.Product{ID: "p1", Title: "Kurta", Slug: "kurta", CategoryID: "c1", CategorySlug: "apparel",
		BasePrice: 2000, Stock: 10, SoldCount: 1250, IsActive: true})
	st.PutProduct(model.Product{ID: "p2", Title: "Lamp", Slug: "lamp", CategoryID: "c2", CategorySlug: "home",
		BasePrice: 1000, Stock: 3, IsActive: true})
	st.PutProduct(model.Product{ID: "p3", Title: "Retired", BasePrice: 900, Stock: 5})
	st.PutDeal(model.Deal{ID: "d1", Name: "Spring", Type: model.DiscountPercent, Value: 10, Priority: 1, IsActive: true,
		StartsAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), ProductIDs: []string{"p1", "p3"}})
	st.PutCoupon(model.Coupon{ID: "c-save15", Code: "SAVE15", Type: model.DiscountPercent, Value: 15,
		AppliesTo: model.AppliesToAll, IsActive: true})
	st.SetSettings(map[string]any{
		"inventory": map[string]any{"lowStockThreshold": 5},
		"shipping": map[string]any{
			"defaultFee":        200,
			"freeAboveSubtotal": 5000,
			"cityRules":         []any{map[string]any{"city": "Lahore", "fee": 0}},
		},
		"footer": map[string]any{
			"text": map[string]any{"en": "Made in Lahore", "ur": "لاہور میں تیار"},
		},
	})
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	st := memstore.New()
	seed(st, time.Now())

	rates := currency.NewRateCache(nil, time.Hour, logger)
	archive := &fakeArchive{objects: map[string][]byte{}}
	salesSvc := sales.NewService(st, archive, logger)
	reviewSvc := reviews.NewService(st, logger)
	dispatcher := queue.NewDispatcher(salesSvc, reviewSvc, logger)
	events := queue.NewEmitter(nil, "", dispatcher.Handle, logger)

	cfg := config.Config{
		Env:              "test",
		JWTSecret:        testSecret,
		CronSecret:       testCronSecret,
		DefaultLanguage:  "en",
		FallbackLanguage: "en",
		RabbitMQQueue:    queue.DefaultQueue,
	}
	router := NewRouter(logger, cfg, Deps{
		Store:    st,
		Events:   events,
		Dispatch: dispatcher.Handle,
		Rates:    rates,
		Checkout: checkout.NewService(st, rates, events, logger),
		Sales:    salesSvc,
		Reviews:  reviewSvc,
		Archive:  archive,
	})
	return &harness{t: t, store: st, rates: rates, archive: archive, router: router}
}

func (h *harness) token(userID string, role auth.UserRole, permissions ...string) string {
	h.t.Helper()
	tok, err := auth.IssueAccessToken(auth.Claims{UserID: userID, Role: role, Permissions: permissions}, testSecret, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decode(t, rec)
	require.Equal(t, true, body["success"], rec.Body.String())
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return d
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestExchangeRate(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/public/exchange-rate", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "RATE_UNAVAILABLE", decode(t, rec)["error"])

	require.True(t, h.rates.Set(currency.Rate{PkrPerUsd: 280, FetchedAt: time.Now()}))
	rec = h.do(http.MethodGet, "/api/public/exchange-rate", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := data(t, rec)
	assert.Equal(t, 280.0, d["pkrPerUsd"])
	assert.Equal(t, false, d["stale"])
}

func TestSettingsAndFooter(t *testing.T) {
	h := newHarness(t)

	d := data(t, h.do(http.MethodGet, "/api/public/settings/storefront", nil, ""))
	shipping := d["shipping"].(map[string]any)
	assert.Equal(t, 200.0, shipping["defaultFee"])
	assert.Equal(t, 5.0, d["inventory"].(map[string]any)["lowStockThreshold"])

	d = data(t, h.do(http.MethodGet, "/api/public/settings/footer?lang=ur-PK", nil, ""))
	assert.Equal(t, "لاہور میں تیار", d["footer"].(map[string]any)["text"])

	d = data(t, h.do(http.MethodGet, "/api/public/settings/footer?lang=fr", nil, ""))
	assert.Equal(t, "Made in Lahore", d["footer"].(map[string]any)["text"])
}

func TestProductDetail(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.rates.Set(currency.Rate{PkrPerUsd: 280, FetchedAt: time.Now()}))

	rec := h.do(http.MethodGet, "/api/public/products/p1?currency=USD", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := data(t, rec)
	assert.Equal(t, 1800.0, d["pricing"].(map[string]any)["price"])
	assert.Equal(t, "1.3k", d["soldCountLabel"])
	assert.Equal(t, 280.0, d["pkrPerUsd"])
	display := d["display"].(map[string]any)
	assert.Equal(t, "$6.43", display["price"])
	assert.Equal(t, "10% OFF", display["dealLabel"])
	assert.Equal(t, false, d["lowStock"])

	d = data(t, h.do(http.MethodGet, "/api/public/products/p2", nil, ""))
	assert.Equal(t, true, d["lowStock"])
	assert.Equal(t, "Rs 1,000", d["display"].(map[string]any)["price"])
	assert.Nil(t, d["pkrPerUsd"])

	rec = h.do(http.MethodGet, "/api/public/products/p3", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = h.do(http.MethodGet, "/api/public/products/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuperDeals(t *testing.T) {
	h := newHarness(t)

	d := data(t, h.do(http.MethodGet, "/api/public/deals/super?limit=5", nil, ""))
	items := d["items"].([]any)
	require.Len(t, items, 1, "inactive products are left out")
	item := items[0].(map[string]any)
	assert.Equal(t, "p1", item["id"])
	assert.Equal(t, 1800.0, item["price"])
	assert.Equal(t, "10% OFF", item["deal"].(map[string]any)["label"])

	d = data(t, h.do(http.MethodGet, "/api/public/deals/super?category=home", nil, ""))
	assert.Empty(t, d["items"])
}

func TestShippingQuote(t *testing.T) {
	h := newHarness(t)

	d := data(t, h.do(http.MethodPost, "/api/public/shipping/quote", map[string]any{"subtotal": 4999, "city": "Karachi"}, ""))
	assert.Equal(t, 200.0, d["amount"])
	assert.Equal(t, "Rs 200", d["display"])

	d = data(t, h.do(http.MethodPost, "/api/public/shipping/quote", map[string]any{"subtotal": 5000, "city": "Karachi"}, ""))
	assert.Equal(t, 0.0, d["amount"])

	d = data(t, h.do(http.MethodPost, "/api/public/shipping/quote", map[string]any{"subtotal": 100, "city": "  lahore "}, ""))
	assert.Equal(t, 0.0, d["amount"])
	assert.Equal(t, "Lahore", d["matchedCity"])
}

func TestCouponValidate(t *testing.T) {
	h := newHarness(t)
	items := []map[string]any{{"productId": "p1", "quantity": 2}}

	rec := h.do(http.MethodPost, "/api/public/coupons/validate", map[string]any{"code": "save15", "items": items}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := data(t, rec)
	assert.Equal(t, "SAVE15", d["code"])
	assert.Equal(t, 540.0, d["discountAmount"])

	rec = h.do(http.MethodPost, "/api/public/coupons/validate", map[string]any{"code": "NOPE", "items": items}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "VOUCHER_NOT_FOUND", decode(t, rec)["error"])

	rec = h.do(http.MethodPost, "/api/public/coupons/validate", map[string]any{"code": "SAVE15"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CHECKOUT_INVALID_REQUEST", decode(t, rec)["error"])
}

func placeOrder(t *testing.T, h *harness) map[string]any {
	t.Helper()
	rec := h.do(http.MethodPost, "/api/public/orders", map[string]any{
		"items":         []map[string]any{{"productId": "p1", "quantity": 2}},
		"couponCode":    "SAVE15",
		"guestEmail":    "Shopper@Example.com",
		"paymentMethod": "cod",
		"shippingAddress": map[string]any{
			"fullName": "Ayesha Khan", "phone": "03001234567", "addressLine1": "12 Mall Road",
			"city": "Karachi", "state": "Sindh", "postalCode": "74000", "country": "PK",
		},
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return data(t, rec)
}

func TestCheckoutQuoteAndOrder(t *testing.T) {
	h := newHarness(t)

	d := data(t, h.do(http.MethodPost, "/api/public/checkout/quote", map[string]any{
		"items":      []map[string]any{{"productId": "p1", "quantity": 2}},
		"couponCode": "SAVE15",
		"city":       "Karachi",
	}, ""))
	assert.Equal(t, 3600.0, d["itemsSubtotal"])
	assert.Equal(t, 540.0, d["discountAmount"])
	assert.Equal(t, 200.0, d["shippingAmount"])
	assert.Equal(t, 3260.0, d["totalAmount"])

	order := placeOrder(t, h)
	assert.Equal(t, 3260.0, order["totalAmount"])
	assert.Equal(t, "SAVE15", order["couponCode"])
	assert.Equal(t, "shopper@example.com", order["guestEmail"])
	assert.Equal(t, "Pending", order["orderStatus"])

	coupon, err := h.store.FindCouponByCode(context.Background(), "SAVE15")
	require.NoError(t, err)
	assert.Equal(t, int64(1), coupon.UsedCount)

	rec := h.do(http.MethodPost, "/api/public/orders", map[string]any{
		"items":         []map[string]any{{"productId": "p1", "quantity": 1}},
		"paymentMethod": "COD",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAuthRequired(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPut, "/api/admin/orders/x/status", map[string]any{"status": "Delivered"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPut, "/api/admin/orders/x/status", map[string]any{"status": "Delivered"}, h.token("u1", auth.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/admin/telemetry", nil, h.token("s1", auth.RoleStaff, string(auth.PermOrders)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/admin/telemetry", nil, h.token("s1", auth.RoleStaff, string(auth.PermReports)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderAndReturnStatusDriveSoldCount(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin", auth.RoleAdmin)
	ctx := context.Background()

	orderID := placeOrder(t, h)["id"].(string)

	rec := h.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", map[string]any{"status": "shipped"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, data(t, rec)["soldCountRecompute"])
	p, _ := h.store.GetProduct(ctx, "p1")
	assert.Equal(t, int64(1250), p.SoldCount, "no recompute until delivery")

	rec = h.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", map[string]any{"status": "Delivered"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, data(t, rec)["soldCountRecompute"])
	p, _ = h.store.GetProduct(ctx, "p1")
	assert.Equal(t, int64(2), p.SoldCount)

	returnID := h.store.PutReturn(model.ReturnRequest{OrderID: orderID, ProductID: "p1", Status: model.ReturnApproved})
	rec = h.do(http.MethodPut, "/api/admin/returns/"+returnID+"/status", map[string]any{"status": "COMPLETED"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p, _ = h.store.GetProduct(ctx, "p1")
	assert.Equal(t, int64(0), p.SoldCount)

	rec = h.do(http.MethodPut, "/api/admin/orders/"+orderID+"/status", map[string]any{"status": "Lost"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(http.MethodPut, "/api/admin/orders/missing/status", map[string]any{"status": "Delivered"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.PutOrder(model.Order{ID: "o-cust", UserID: "u1", OrderStatus: model.OrderDelivered,
		Items: []model.OrderItem{{ProductID: "p2", Quantity: 1}}})
	customer := h.token("u1", auth.RoleCustomer)
	body := map[string]any{"productId": "p2", "orderId": "o-cust", "rating": 4, "comment": "Bright"}

	rec := h.do(http.MethodPost, "/api/public/reviews", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/public/reviews", body, h.token("u2", auth.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/public/reviews", body, customer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reviewID := data(t, rec)["review"].(map[string]any)["id"].(string)
	p, _ := h.store.GetProduct(ctx, "p2")
	assert.Equal(t, 4.0, p.RatingAvg)
	assert.Equal(t, int64(1), p.ReviewsCount)

	rec = h.do(http.MethodPost, "/api/public/reviews", body, customer)
	assert.Equal(t, http.StatusConflict, rec.Code)

	admin := h.token("admin", auth.RoleAdmin)
	rec = h.do(http.MethodPost, "/api/admin/reviews/"+reviewID+"/hide", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p, _ = h.store.GetProduct(ctx, "p2")
	assert.Equal(t, int64(0), p.RatingCount)
	assert.Equal(t, 0.0, p.AverageRating)

	rec = h.do(http.MethodPatch, "/api/admin/reviews/"+reviewID, map[string]any{"comment": "Edited"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, data(t, rec)["recomputed"])

	rec = h.do(http.MethodPost, "/api/admin/reviews/"+reviewID+"/unhide", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	p, _ = h.store.GetProduct(ctx, "p2")
	assert.Equal(t, int64(1), p.RatingCount)

	rec = h.do(http.MethodDelete, "/api/admin/reviews/"+reviewID, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	p, _ = h.store.GetProduct(ctx, "p2")
	assert.Equal(t, int64(0), p.RatingCount)

	rec = h.do(http.MethodDelete, "/api/admin/reviews/"+reviewID, nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REVIEW_NOT_FOUND", decode(t, rec)["error"])
}

func TestProductRecompute(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin", auth.RoleAdmin)

	d := data(t, h.do(http.MethodPost, "/api/admin/products/p1/recompute", nil, admin))
	assert.Equal(t, 0.0, d["soldCount"])
	assert.Equal(t, 0.0, d["reviewsCount"])

	rec := h.do(http.MethodPost, "/api/admin/products/missing/recompute", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSoldCountBatchAndRuns(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin", auth.RoleAdmin)

	rec := h.do(http.MethodPost, "/api/cron/sold-count/recompute", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/api/cron/sold-count/recompute", nil, testCronSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := data(t, rec)
	runID := summary["runId"].(string)
	assert.Equal(t, 1.0, summary["products"], "only p1 carried a stale count")
	p, _ := h.store.GetProduct(context.Background(), "p1")
	assert.Equal(t, int64(0), p.SoldCount)

	d := data(t, h.do(http.MethodGet, "/api/admin/sold-count/runs", nil, admin))
	runs := d["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].(map[string]any)["runId"])

	rec = h.do(http.MethodGet, "/api/admin/sold-count/runs/"+runID, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), runID)

	rec = h.do(http.MethodGet, "/api/admin/sold-count/runs/00000000-0000-0000-0000-000000000000", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPost, "/api/admin/sold-count/recompute", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, data(t, rec)["modified"])
}

func TestSoldCountReportPDF(t *testing.T) {
	h := newHarness(t)
	admin := h.token("admin", auth.RoleAdmin)

	rec := h.do(http.MethodGet, "/api/admin/reports/sold-count.pdf?upload=true", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	runID := rec.Header().Get("X-Report-Run-ID")
	assert.Equal(t, "https://cdn.example.com/reports/sold-count/"+runID+".pdf", rec.Header().Get("X-Report-URL"))

	rec = h.do(http.MethodGet, "/api/admin/reports/sold-count.pdf?currency=USD", nil, admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCronQueueDrainWithoutBroker(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/cron/queue/drain", nil, testCronSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["disabled"])
	assert.Equal(t, 0.0, body["processed"])
}
