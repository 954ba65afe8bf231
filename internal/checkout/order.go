package checkout

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/queue"
	"storefront-services/internal/voucher"

	"go.uber.org/zap"
)

type PlaceOrderRequest struct {
	QuoteRequest
	GuestEmail      string                `json:"guestEmail" validate:"omitempty,email"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required,oneof=COD MANUAL ONLINE"`
}

// PlaceOrder re-prices the cart server side and stores the result as an
// immutable order snapshot.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (model.Order, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.Order{}, badRequest(ErrInvalidRequest, "Invalid order request", map[string]any{"reason": err.Error()})
	}
	if req.CustomerID == "" && strings.TrimSpace(req.GuestEmail) == "" {
		return model.Order{}, badRequest(ErrInvalidRequest, "Guest email is required", nil)
	}
	if strings.TrimSpace(req.City) == "" {
		req.City = req.ShippingAddress.City
	}

	q, err := s.Quote(ctx, req.QuoteRequest)
	if err != nil {
		return model.Order{}, err
	}
	if q.Coupon != nil && q.Coupon.Error != "" {
		return model.Order{}, &voucher.Error{Code: q.Coupon.Error, Message: q.Coupon.Message, StatusCode: http.StatusBadRequest}
	}
	if q.Currency == currency.USD && q.PkrPerUsd == nil {
		return model.Order{}, &Error{Code: ErrCurrencyUnavailable, Message: "Exchange rate is unavailable", StatusCode: http.StatusServiceUnavailable}
	}

	order := model.Order{
		UserID:          req.CustomerID,
		GuestEmail:      strings.ToLower(strings.TrimSpace(req.GuestEmail)),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Currency:        string(q.Currency),
		PkrPerUsd:       q.PkrPerUsd,
		PaymentStatus:   model.PaymentUnpaid,
		DiscountAmount:  q.DiscountAmount,
		ItemsSubtotal:   q.ItemsSubtotal,
		ShippingAmount:  q.ShippingAmount,
		TaxAmount:       q.TaxAmount,
		TotalAmount:     q.TotalAmount,
		OrderStatus:     model.OrderPending,
		CreatedAt:       s.now().UTC(),
	}
	if d := q.Discount; d != nil {
		switch d.Source {
		case voucher.SourceCoupon:
			order.CouponCode = d.Code
			order.CouponDiscountAmount = d.Amount
		case voucher.SourcePromotion:
			order.PromotionID = d.ID
			order.PromotionName = d.Name
			order.PromotionDiscountAmount = d.Amount
		}
	}
	for _, l := range q.Lines {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    l.ProductID,
			VariantID:    l.VariantID,
			VariantSKU:   l.VariantSKU,
			VariantSize:  l.VariantSize,
			VariantColor: l.VariantColor,
			Title:        l.Title,
			Slug:         l.Slug,
			Image:        l.Image,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
		})
	}

	if err := s.store.CreateOrder(ctx, &order); err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	if d := q.Discount; d != nil && d.Source == voucher.SourceCoupon {
		if err := s.store.IncrementCouponUsage(ctx, d.ID); err != nil {
			s.logger.Warn("coupon usage increment failed", zap.String("orderId", order.ID), zap.String("coupon", d.Code), zap.Error(err))
		}
	}

	s.publishCreated(ctx, order)
	return order, nil
}

func (s *Service) publishCreated(ctx context.Context, order model.Order) {
	if s.publisher == nil {
		return
	}
	event := queue.OrderCreatedEvent{
		Event:       queue.RKOrderCreated,
		OrderID:     order.ID,
		ProductIDs:  queue.OrderProductIDs(order),
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		CouponCode:  order.CouponCode,
		CreatedAt:   order.CreatedAt,
	}
	if err := s.publisher.Emit(ctx, queue.RKOrderCreated, event); err != nil {
		s.logger.Warn("order.created publish failed", zap.String("orderId", order.ID), zap.Error(err))
	}
}
