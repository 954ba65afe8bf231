package voucher

import (
	"testing"
	"time"

	"storefront-services/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int64) *int64       { return &v }
func ptrTime(v time.Time) *time.Time {
	return &v
}

func activeCandidate(id string, typ model.DiscountType, value float64) Candidate {
	return Candidate{
		ID:       id,
		Source:   SourcePromotion,
		Name:     id,
		Type:     typ,
		Value:    value,
		Scope:    AllItems(),
		IsActive: true,
	}
}

func orderRequest(subtotal float64) Request {
	return Request{
		Subtotal: subtotal,
		Items: []LineItem{
			{ProductID: "p1", CategoryID: "shirts", Quantity: 1, UnitPrice: subtotal},
		},
		Now: testNow,
	}
}

func TestResolvePrefersLargerDiscountOnTie(t *testing.T) {
	ten := activeCandidate("ten", model.DiscountFixed, 10)
	fifteen := activeCandidate("fifteen", model.DiscountPercent, 15)

	got := Resolve([]Candidate{ten, fifteen}, orderRequest(100))
	require.NotNil(t, got)
	assert.Equal(t, "fifteen", got.Candidate.ID)
	assert.Equal(t, 15.0, got.DiscountAmount)
}

func TestResolvePriorityBeatsAmount(t *testing.T) {
	big := activeCandidate("big", model.DiscountPercent, 50)
	small := activeCandidate("small", model.DiscountFixed, 5)
	small.Priority = 3

	got := Resolve([]Candidate{big, small}, orderRequest(100))
	require.NotNil(t, got)
	assert.Equal(t, "small", got.Candidate.ID)
	assert.Equal(t, 5.0, got.DiscountAmount)
}

func TestResolveKeepsInputOrderOnFullTie(t *testing.T) {
	a := activeCandidate("a", model.DiscountFixed, 10)
	b := activeCandidate("b", model.DiscountFixed, 10)

	got := Resolve([]Candidate{a, b}, orderRequest(100))
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Candidate.ID)
}

func TestResolveNoEligible(t *testing.T) {
	inactive := activeCandidate("off", model.DiscountFixed, 10)
	inactive.IsActive = false

	assert.Nil(t, Resolve(nil, orderRequest(100)))
	assert.Nil(t, Resolve([]Candidate{inactive}, orderRequest(100)))
}

func TestDiscountAmountClampOrder(t *testing.T) {
	c := activeCandidate("capped", model.DiscountPercent, 50)
	c.MaxDiscountAmount = ptrFloat(30)
	assert.Equal(t, 30.0, DiscountAmount(c, 100))

	fixed := activeCandidate("fixed", model.DiscountFixed, 500)
	fixed.MaxDiscountAmount = ptrFloat(400)
	assert.Equal(t, 120.0, DiscountAmount(fixed, 120))

	assert.Equal(t, 0.0, DiscountAmount(fixed, -10))
}

func TestEligibleChecks(t *testing.T) {
	base := activeCandidate("c", model.DiscountFixed, 10)

	cases := []struct {
		name   string
		mutate func(c *Candidate, r *Request)
		want   ErrorCode
	}{
		{"inactive", func(c *Candidate, _ *Request) { c.IsActive = false }, ErrVoucherInactive},
		{"not started", func(c *Candidate, _ *Request) { c.StartsAt = ptrTime(testNow.Add(time.Hour)) }, ErrVoucherNotActiveYet},
		{"expired", func(c *Candidate, _ *Request) { c.ExpiresAt = ptrTime(testNow.Add(-time.Second)) }, ErrVoucherExpired},
		{"min order", func(c *Candidate, _ *Request) { c.MinOrderAmount = 101 }, ErrVoucherMinOrderNotMet},
		{"category scope miss", func(c *Candidate, _ *Request) { c.Scope = Categories("shoes") }, ErrVoucherNotApplicableItems},
		{"empty product scope", func(c *Candidate, _ *Request) { c.Scope = Products() }, ErrVoucherNotApplicableItems},
		{"global limit", func(c *Candidate, _ *Request) { c.UsageLimit = ptrInt(5); c.UsedCount = 5 }, ErrVoucherUsageLimitReached},
		{"customer limit", func(c *Candidate, r *Request) {
			c.UsageLimitPerCustomer = ptrInt(1)
			c.CustomerUsedCount = 1
			r.CustomerID = "u1"
		}, ErrVoucherCustomerLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			req := orderRequest(100)
			tc.mutate(&c, &req)

			err := Eligible(c, req)
			require.NotNil(t, err)
			assert.Equal(t, tc.want, err.Code)
		})
	}
}

func TestEligibleBoundsAreInclusive(t *testing.T) {
	c := activeCandidate("c", model.DiscountFixed, 10)
	c.StartsAt = ptrTime(testNow)
	c.ExpiresAt = ptrTime(testNow)
	c.MinOrderAmount = 100
	c.Scope = Products("p1")
	c.UsageLimitPerCustomer = ptrInt(1)
	c.CustomerUsedCount = 3

	assert.Nil(t, Eligible(c, orderRequest(100)))
}

func TestValidateZeroDiscount(t *testing.T) {
	c := activeCandidate("zero", model.DiscountPercent, 0)
	_, err := Validate(c, orderRequest(100))
	require.NotNil(t, err)
	assert.Equal(t, ErrVoucherDiscountZero, err.Code)
}

func TestFromCoupon(t *testing.T) {
	coupon := model.Coupon{
		ID:          "c1",
		Code:        " save10 ",
		Type:        model.DiscountPercent,
		Value:       10,
		AppliesTo:   model.AppliesToCategories,
		CategoryIDs: []string{"shirts"},
		IsActive:    true,
	}

	c := FromCoupon(coupon, 0)
	assert.Equal(t, "SAVE10", c.Code)
	assert.Equal(t, 0, c.Priority)
	assert.Equal(t, SourceCoupon, c.Source)

	res, err := Validate(c, orderRequest(250))
	require.Nil(t, err)
	assert.Equal(t, 25.0, res.DiscountAmount)
	assert.Equal(t, "SAVE10", res.Candidate.Label())
}
