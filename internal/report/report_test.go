package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	products []model.Product
	deals    []model.Deal
}

func (f fakeSource) ListProducts(context.Context, store.ProductFilter) ([]model.Product, error) {
	return f.products, nil
}

func (f fakeSource) ActiveDeals(context.Context, time.Time) ([]model.Deal, error) {
	return f.deals, nil
}

type memoryUploader struct {
	key, contentType string
	body             []byte
}

func (m *memoryUploader) PutObject(_ context.Context, key string, body []byte, contentType, _ string) (string, error) {
	m.key, m.body, m.contentType = key, body, contentType
	return "https://cdn.example.com/" + key, nil
}

func TestBuildSortsBySoldCount(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	src := fakeSource{
		products: []model.Product{
			{ID: "a", Title: "Scarf", BasePrice: 1000, SoldCount: 3},
			{ID: "b", Title: "Kurta", BasePrice: 2000, SoldCount: 12},
			{ID: "c", Title: "Cap", BasePrice: 500},
		},
		deals: []model.Deal{{
			ID: "d", Type: model.DiscountPercent, Value: 50, IsActive: true,
			StartsAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour), ProductIDs: []string{"a"},
		}},
	}

	r, err := Build(context.Background(), src, now)
	require.NoError(t, err)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{r.Rows[0].ProductID, r.Rows[1].ProductID, r.Rows[2].ProductID})
	assert.Equal(t, 500.0, r.Rows[1].UnitPrice)
	assert.Equal(t, 1500.0, r.Rows[1].Revenue)
	assert.Equal(t, int64(15), r.TotalSold)
	assert.Equal(t, 25500.0, r.TotalRevenue)
}

func TestRenderPDFAndUpload(t *testing.T) {
	r := Report{
		GeneratedAt:  time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC),
		Rows:         []Row{{ProductID: "b", Title: "Kurta", SoldCount: 1200, UnitPrice: 2000, Revenue: 2400000}},
		TotalSold:    1200,
		TotalRevenue: 2400000,
	}

	for _, tc := range []struct {
		code currency.Code
		rate float64
	}{{currency.PKR, 0}, {currency.USD, 280}, {currency.USD, 0}} {
		buf, err := RenderPDF(r, tc.code, tc.rate)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}

	buf, err := RenderPDF(r, currency.PKR, 0)
	require.NoError(t, err)
	up := &memoryUploader{}
	url, err := Upload(context.Background(), up, "run-1", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "reports/sold-count/run-1.pdf", up.key)
	assert.Equal(t, "application/pdf", up.contentType)
	assert.Equal(t, "https://cdn.example.com/reports/sold-count/run-1.pdf", url)

	_, err = Upload(context.Background(), nil, "run-2", buf.Bytes())
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
