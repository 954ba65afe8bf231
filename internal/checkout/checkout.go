package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/pricing"
	"storefront-services/internal/shipping"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"
	"storefront-services/internal/voucher"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "CHECKOUT_INVALID_REQUEST"
	ErrProductUnavailable  ErrorCode = "CHECKOUT_PRODUCT_UNAVAILABLE"
	ErrVariantRequired     ErrorCode = "CHECKOUT_VARIANT_REQUIRED"
	ErrOutOfStock          ErrorCode = "CHECKOUT_OUT_OF_STOCK"
	ErrCurrencyUnavailable ErrorCode = "CHECKOUT_CURRENCY_UNAVAILABLE"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func badRequest(code ErrorCode, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusBadRequest, Details: details}
}

type Store interface {
	store.Catalog
	store.Settings
	store.Discounts
	store.Orders
}

// Publisher emits storefront events. queue.Emitter satisfies it.
type Publisher interface {
	Emit(ctx context.Context, routingKey string, payload any) error
}

type RateSource interface {
	PkrPerUsd() float64
}

type Line struct {
	ProductID string `json:"productId" validate:"required"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity" validate:"min=1,max=100"`
}

type QuoteRequest struct {
	Items      []Line        `json:"items" validate:"required,min=1,max=50,dive"`
	CouponCode string        `json:"couponCode"`
	City       string        `json:"city"`
	Currency   currency.Code `json:"currency"`
	CustomerID string        `json:"customerId"`
}

type QuoteLine struct {
	ProductID         string  `json:"productId"`
	VariantID         string  `json:"variantId"`
	CategoryID        string  `json:"categoryId"`
	Title             string  `json:"title"`
	Slug              string  `json:"slug"`
	Image             string  `json:"image"`
	VariantSKU        string  `json:"variantSku,omitempty"`
	VariantSize       string  `json:"variantSize,omitempty"`
	VariantColor      string  `json:"variantColor,omitempty"`
	Quantity          int     `json:"quantity"`
	OriginalUnitPrice float64 `json:"originalUnitPrice"`
	UnitPrice         float64 `json:"unitPrice"`
	LineTotal         float64 `json:"lineTotal"`
	DealID            string  `json:"dealId,omitempty"`
	DealLabel         string  `json:"dealLabel,omitempty"`
}

type Discount struct {
	Source voucher.Source `json:"source"`
	ID     string         `json:"id"`
	Code   string         `json:"code,omitempty"`
	Name   string         `json:"name"`
	Amount float64        `json:"amount"`
}

type CouponStatus struct {
	Code    string            `json:"code"`
	Applied bool              `json:"applied"`
	Error   voucher.ErrorCode `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
}

type Display struct {
	ItemsSubtotal string `json:"itemsSubtotal"`
	Discount      string `json:"discount"`
	Shipping      string `json:"shipping"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
}

type Quote struct {
	Lines              []QuoteLine    `json:"lines"`
	ItemsSubtotal      float64        `json:"itemsSubtotal"`
	Discount           *Discount      `json:"discount"`
	Coupon             *CouponStatus  `json:"coupon,omitempty"`
	DiscountAmount     float64        `json:"discountAmount"`
	DiscountedSubtotal float64        `json:"discountedSubtotal"`
	Shipping           shipping.Quote `json:"shipping"`
	ShippingAmount     float64        `json:"shippingAmount"`
	TaxAmount          float64        `json:"taxAmount"`
	TotalAmount        float64        `json:"totalAmount"`
	Eta                shipping.Eta   `json:"eta"`
	Currency           currency.Code  `json:"currency"`
	PkrPerUsd          *float64       `json:"pkrPerUsd"`
	Display            Display        `json:"display"`
}

type Service struct {
	store     Store
	rates     RateSource
	publisher Publisher
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewService builds the checkout service. publisher may be nil.
func NewService(st Store, rates RateSource, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     st,
		rates:     rates,
		publisher: publisher,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	if err := s.validate.Struct(req); err != nil {
		return Quote{}, badRequest(ErrInvalidRequest, "Invalid checkout request", map[string]any{"reason": err.Error()})
	}
	now := s.now()

	deals, err := s.store.ActiveDeals(ctx, now)
	if err != nil {
		return Quote{}, fmt.Errorf("load deals: %w", err)
	}

	q := Quote{Currency: currency.ParseCode(string(req.Currency))}
	items := make([]voucher.LineItem, 0, len(req.Items))
	for _, in := range req.Items {
		line, err := s.priceLine(ctx, in, deals, now)
		if err != nil {
			return Quote{}, err
		}
		q.Lines = append(q.Lines, line)
		q.ItemsSubtotal += line.LineTotal
		items = append(items, voucher.LineItem{
			ProductID:  line.ProductID,
			CategoryID: line.CategoryID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		})
	}
	q.ItemsSubtotal = utils.Round2(q.ItemsSubtotal)

	vreq := voucher.Request{Subtotal: q.ItemsSubtotal, Items: items, CustomerID: req.CustomerID, Now: now}
	candidates, coupon, err := s.candidates(ctx, req, vreq)
	if err != nil {
		return Quote{}, err
	}
	q.Coupon = coupon

	if winner := voucher.Resolve(candidates, vreq); winner != nil {
		c := winner.Candidate
		q.Discount = &Discount{Source: c.Source, ID: c.ID, Code: c.Code, Name: c.Label(), Amount: winner.DiscountAmount}
		q.DiscountAmount = winner.DiscountAmount
	}
	if q.Coupon != nil && q.Coupon.Error == "" {
		q.Coupon.Applied = q.Discount != nil && q.Discount.Source == voucher.SourceCoupon
	}

	q.DiscountedSubtotal = utils.Round2(utils.NonNegative(q.ItemsSubtotal - q.DiscountAmount))

	raw, err := s.store.StorefrontSettings(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load settings: %w", err)
	}
	settings := shipping.NormalizeStorefront(raw)
	q.Shipping = shipping.ComputeShipping(q.DiscountedSubtotal, req.City, settings.Shipping)
	q.ShippingAmount = q.Shipping.Amount
	q.Eta = shipping.ComputeEta(req.City, settings.Shipping)

	q.TotalAmount = utils.Round2(utils.NonNegative(q.ItemsSubtotal - q.DiscountAmount + q.ShippingAmount + q.TaxAmount))

	rate := 0.0
	if s.rates != nil {
		rate = s.rates.PkrPerUsd()
	}
	if q.Currency == currency.USD && rate > 0 {
		q.PkrPerUsd = &rate
	}
	q.Display = Display{
		ItemsSubtotal: currency.Format(q.ItemsSubtotal, q.Currency, rate),
		Discount:      currency.Format(q.DiscountAmount, q.Currency, rate),
		Shipping:      currency.Format(q.ShippingAmount, q.Currency, rate),
		Tax:           currency.Format(q.TaxAmount, q.Currency, rate),
		Total:         currency.Format(q.TotalAmount, q.Currency, rate),
	}
	return q, nil
}

func (s *Service) priceLine(ctx context.Context, in Line, deals []model.Deal, now time.Time) (QuoteLine, error) {
	p, err := s.store.GetProduct(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return QuoteLine{}, badRequest(ErrProductUnavailable, "Product is not available", map[string]any{"productId": in.ProductID})
		}
		return QuoteLine{}, fmt.Errorf("load product: %w", err)
	}
	if !p.IsActive {
		return QuoteLine{}, badRequest(ErrProductUnavailable, "Product is not available", map[string]any{"productId": in.ProductID})
	}

	line := QuoteLine{
		ProductID:         p.ID,
		CategoryID:        p.CategoryID,
		Title:             p.Title,
		Slug:              p.Slug,
		Quantity:          in.Quantity,
		OriginalUnitPrice: p.BasePrice,
	}
	if len(p.Images) > 0 {
		line.Image = p.Images[0]
	}

	if len(p.Variants) > 0 {
		v, ok := p.Variant(strings.TrimSpace(in.VariantID))
		if !ok {
			return QuoteLine{}, badRequest(ErrVariantRequired, "Select a valid variant", map[string]any{"productId": p.ID})
		}
		if v.Stock < in.Quantity {
			return QuoteLine{}, badRequest(ErrOutOfStock, "Not enough stock", map[string]any{
				"productId": p.ID,
				"variantId": v.ID,
				"available": v.Stock,
			})
		}
		line.VariantID = v.ID
		line.VariantSKU = v.SKU
		line.VariantSize = v.Size
		line.VariantColor = v.Color
		line.OriginalUnitPrice = v.Price
		if len(v.Images) > 0 {
			line.Image = v.Images[0]
		}
	} else if p.Stock < in.Quantity {
		return QuoteLine{}, badRequest(ErrOutOfStock, "Not enough stock", map[string]any{
			"productId": p.ID,
			"available": p.Stock,
		})
	}

	price, deal, ok := pricing.UnitPrice(p, line.VariantID, deals, now)
	line.UnitPrice = price
	if ok {
		line.DealID = deal.ID
		line.DealLabel = pricing.Label(deal.Type, deal.Value)
	}
	line.LineTotal = utils.Round2(line.UnitPrice * float64(line.Quantity))
	return line, nil
}

// candidates gathers running promotions plus the shopper's coupon. A coupon
// that fails validation is reported in CouponStatus and left out.
func (s *Service) candidates(ctx context.Context, req QuoteRequest, vreq voucher.Request) ([]voucher.Candidate, *CouponStatus, error) {
	promotions, err := s.store.ActivePromotions(ctx, vreq.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("load promotions: %w", err)
	}
	out := make([]voucher.Candidate, 0, len(promotions)+1)
	for _, p := range promotions {
		out = append(out, voucher.FromPromotion(p))
	}

	code := voucher.NormalizeCode(req.CouponCode)
	if code == "" {
		return out, nil, nil
	}
	status := &CouponStatus{Code: code}

	candidate, verr, err := s.LoadCoupon(ctx, code, req.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	if verr == nil {
		_, verr = voucher.Validate(candidate, vreq)
	}
	if verr != nil {
		status.Error = verr.Code
		status.Message = verr.Message
		return out, status, nil
	}
	return append(out, candidate), status, nil
}

// LoadCoupon looks a code up and fills in the customer's prior uses.
func (s *Service) LoadCoupon(ctx context.Context, code, customerID string) (voucher.Candidate, *voucher.Error, error) {
	code = voucher.NormalizeCode(code)
	if code == "" {
		return voucher.Candidate{}, voucher.ValidationError(voucher.ErrVoucherCodeRequired, "Coupon code is required", nil), nil
	}
	coupon, err := s.store.FindCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return voucher.Candidate{}, voucher.NotFoundError("Invalid coupon code"), nil
		}
		return voucher.Candidate{}, nil, fmt.Errorf("load coupon: %w", err)
	}

	var used int64
	if customerID != "" && coupon.UsageLimitPerCustomer != nil {
		used, err = s.store.CountCustomerCouponUses(ctx, coupon.Code, customerID)
		if err != nil {
			return voucher.Candidate{}, nil, fmt.Errorf("count coupon uses: %w", err)
		}
	}
	return voucher.FromCoupon(coupon, used), nil, nil
}

// ValidateCoupon answers the storefront's "apply code" box.
func (s *Service) ValidateCoupon(ctx context.Context, req QuoteRequest) (*voucher.Result, error) {
	q, err := s.Quote(ctx, QuoteRequest{Items: req.Items, City: req.City, Currency: req.Currency, CustomerID: req.CustomerID})
	if err != nil {
		return nil, err
	}
	items := make([]voucher.LineItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, voucher.LineItem{ProductID: l.ProductID, CategoryID: l.CategoryID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	candidate, verr, err := s.LoadCoupon(ctx, req.CouponCode, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if verr != nil {
		return nil, verr
	}
	res, verr := voucher.Validate(candidate, voucher.Request{
		Subtotal:   q.ItemsSubtotal,
		Items:      items,
		CustomerID: req.CustomerID,
		Now:        s.now(),
	})
	if verr != nil {
		return nil, verr
	}
	return res, nil
}
