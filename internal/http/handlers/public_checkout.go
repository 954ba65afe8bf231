package handlers

import (
	"net/http"
	"strings"

	"storefront-services/internal/checkout"
	"storefront-services/internal/currency"
	"storefront-services/internal/middleware"
	"storefront-services/internal/shipping"
	"storefront-services/internal/utils"
	"storefront-services/pkg/response"

	"go.uber.org/zap"
)

type shippingQuoteRequest struct {
	Subtotal float64 `json:"subtotal"`
	City     string  `json:"city"`
	Currency string  `json:"currency"`
}

func (h *Handler) PublicShippingQuote(w http.ResponseWriter, r *http.Request) {
	var body shippingQuoteRequest
	if !decodeBody(w, r, &body) {
		return
	}

	raw, err := h.Store.StorefrontSettings(r.Context())
	if err != nil {
		h.Logger.Error("storefront settings load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load shipping settings")
		return
	}
	settings := shipping.NormalizeStorefront(raw).Shipping

	subtotal := utils.NonNegative(body.Subtotal)
	quote := shipping.ComputeShipping(subtotal, body.City, settings)
	eta := shipping.ComputeEta(body.City, settings)

	code := currency.ParseCode(body.Currency)
	response.Success(w, map[string]any{
		"amount":            quote.Amount,
		"matchedCity":       quote.MatchedCity,
		"freeAboveSubtotal": quote.FreeAboveSubtotal,
		"eta":               eta,
		"currency":          code,
		"display":           currency.Format(quote.Amount, code, h.pkrPerUsd()),
	})
}

type couponValidateRequest struct {
	Code       string          `json:"code"`
	CustomerID string          `json:"customerId"`
	City       string          `json:"city"`
	Currency   string          `json:"currency"`
	Items      []checkout.Line `json:"items"`
}

// customerFor prefers the signed-in identity over anything in the body.
func customerFor(r *http.Request, fromBody string) string {
	if id := middleware.CustomerID(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(fromBody)
}

func (h *Handler) PublicCouponValidate(w http.ResponseWriter, r *http.Request) {
	var body couponValidateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := h.Checkout.ValidateCoupon(r.Context(), checkout.QuoteRequest{
		Items:      body.Items,
		CouponCode: body.Code,
		City:       body.City,
		Currency:   currency.ParseCode(body.Currency),
		CustomerID: customerFor(r, body.CustomerID),
	})
	if err != nil {
		h.writeServiceError(w, err, "coupon validation failed")
		return
	}

	code := currency.ParseCode(body.Currency)
	c := res.Candidate
	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"couponId":       c.ID,
			"code":           c.Code,
			"type":           c.Type,
			"value":          c.Value,
			"discountAmount": res.DiscountAmount,
			"display":        currency.Format(res.DiscountAmount, code, h.pkrPerUsd()),
		},
		"message":    "Coupon valid",
		"statusCode": http.StatusOK,
	})
}

type checkoutQuoteRequest struct {
	Items      []checkout.Line `json:"items"`
	CouponCode string          `json:"couponCode"`
	City       string          `json:"city"`
	Currency   string          `json:"currency"`
}

func (h *Handler) PublicCheckoutQuote(w http.ResponseWriter, r *http.Request) {
	var body checkoutQuoteRequest
	if !decodeBody(w, r, &body) {
		return
	}

	quote, err := h.Checkout.Quote(r.Context(), checkout.QuoteRequest{
		Items:      body.Items,
		CouponCode: body.CouponCode,
		City:       body.City,
		Currency:   currency.ParseCode(body.Currency),
		CustomerID: middleware.CustomerID(r.Context()),
	})
	if err != nil {
		h.writeServiceError(w, err, "checkout quote failed")
		return
	}
	response.Success(w, quote)
}

type orderCreateRequest struct {
	checkoutQuoteRequest
	GuestEmail      string               `json:"guestEmail"`
	PaymentMethod   string               `json:"paymentMethod"`
	ShippingAddress orderShippingAddress `json:"shippingAddress"`
}

type orderShippingAddress struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	var body orderCreateRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req := checkout.PlaceOrderRequest{
		QuoteRequest: checkout.QuoteRequest{
			Items:      body.Items,
			CouponCode: body.CouponCode,
			City:       body.City,
			Currency:   currency.ParseCode(body.Currency),
			CustomerID: middleware.CustomerID(r.Context()),
		},
		GuestEmail:    strings.TrimSpace(body.GuestEmail),
		PaymentMethod: strings.ToUpper(strings.TrimSpace(body.PaymentMethod)),
	}
	a := body.ShippingAddress
	req.ShippingAddress.FullName = strings.TrimSpace(a.FullName)
	req.ShippingAddress.Phone = strings.TrimSpace(a.Phone)
	req.ShippingAddress.AddressLine1 = strings.TrimSpace(a.AddressLine1)
	req.ShippingAddress.AddressLine2 = strings.TrimSpace(a.AddressLine2)
	req.ShippingAddress.City = strings.TrimSpace(a.City)
	req.ShippingAddress.State = strings.TrimSpace(a.State)
	req.ShippingAddress.PostalCode = strings.TrimSpace(a.PostalCode)
	req.ShippingAddress.Country = strings.TrimSpace(a.Country)

	order, err := h.Checkout.PlaceOrder(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "order create failed")
		return
	}

	h.Logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.Float64("totalAmount", order.TotalAmount),
		zap.String("currency", order.Currency),
	)
	response.Created(w, order, "Order placed successfully")
}
