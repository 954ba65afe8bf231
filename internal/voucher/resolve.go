package voucher

import (
	"math"
	"sort"
	"time"

	"storefront-services/internal/pricing"
	"storefront-services/internal/utils"
)

type LineItem struct {
	ProductID  string
	CategoryID string
	Quantity   int
	UnitPrice  float64
}

type Request struct {
	Subtotal   float64
	Items      []LineItem
	CustomerID string
	Now        time.Time
}

type Result struct {
	Candidate      Candidate
	DiscountAmount float64
}

// Eligible returns nil when c can apply to req, otherwise the first failing
// check.
func Eligible(c Candidate, req Request) *Error {
	if !c.IsActive {
		return ValidationError(ErrVoucherInactive, "Voucher is inactive", nil)
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return ValidationError(ErrVoucherNotActiveYet, "Voucher is not active yet", map[string]any{"startsAt": *c.StartsAt})
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ValidationError(ErrVoucherExpired, "Voucher has expired", map[string]any{"expiresAt": *c.ExpiresAt})
	}

	subtotal := utils.NonNegative(req.Subtotal)
	if subtotal < c.MinOrderAmount {
		return ValidationError(ErrVoucherMinOrderNotMet, "Order does not meet minimum amount", map[string]any{
			"minOrderAmount": c.MinOrderAmount,
			"subtotal":       subtotal,
		})
	}

	if !c.Scope.Matches(req.Items) {
		return ValidationError(ErrVoucherNotApplicableItems, "Voucher is not applicable to selected items", map[string]any{
			"appliesTo": c.Scope.Kind,
		})
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return ValidationError(ErrVoucherUsageLimitReached, "Voucher usage limit reached", map[string]any{
			"usageLimit": *c.UsageLimit,
		})
	}
	// Guests have no per-customer history.
	if c.UsageLimitPerCustomer != nil && req.CustomerID != "" && c.CustomerUsedCount >= *c.UsageLimitPerCustomer {
		return ValidationError(ErrVoucherCustomerLimit, "Voucher usage limit reached for this customer", map[string]any{
			"usageLimitPerCustomer": *c.UsageLimitPerCustomer,
		})
	}
	return nil
}

// DiscountAmount applies the candidate's discount shape to the order
// subtotal, then the max discount cap, then clamps to the subtotal.
func DiscountAmount(c Candidate, subtotal float64) float64 {
	subtotal = utils.Round2(utils.NonNegative(subtotal))
	amount := subtotal - pricing.Price(subtotal, c.Type, c.Value)
	if c.MaxDiscountAmount != nil {
		amount = math.Min(amount, utils.NonNegative(*c.MaxDiscountAmount))
	}
	amount = math.Min(amount, subtotal)
	return utils.Round2(math.Max(0, amount))
}

// Validate checks a single candidate, typically a coupon code typed by the
// shopper.
func Validate(c Candidate, req Request) (*Result, *Error) {
	if err := Eligible(c, req); err != nil {
		return nil, err
	}
	amount := DiscountAmount(c, req.Subtotal)
	if amount <= 0 {
		return nil, ValidationError(ErrVoucherDiscountZero, "Voucher discount is zero", nil)
	}
	return &Result{Candidate: c, DiscountAmount: amount}, nil
}

// Resolve picks at most one candidate for the order. Higher priority wins,
// then the larger discount, then input order. Candidates that would take
// nothing off are skipped. A nil result means no discount.
func Resolve(candidates []Candidate, req Request) *Result {
	type ranked struct {
		result Result
		index  int
	}

	eligible := make([]ranked, 0, len(candidates))
	for i, c := range candidates {
		res, err := Validate(c, req)
		if err != nil {
			continue
		}
		eligible = append(eligible, ranked{result: *res, index: i})
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.result.Candidate.Priority != b.result.Candidate.Priority {
			return a.result.Candidate.Priority > b.result.Candidate.Priority
		}
		if a.result.DiscountAmount != b.result.DiscountAmount {
			return a.result.DiscountAmount > b.result.DiscountAmount
		}
		return a.index < b.index
	})

	winner := eligible[0].result
	return &winner
}
