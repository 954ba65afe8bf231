package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid         PaymentStatus = "Unpaid"
	PaymentPending        PaymentStatus = "Pending"
	PaymentProofSubmitted PaymentStatus = "ProofSubmitted"
	PaymentRejected       PaymentStatus = "Rejected"
	PaymentPaid           PaymentStatus = "Paid"
)

type OrderItem struct {
	ProductID    string  `json:"productId"`
	VariantID    string  `json:"variantId"`
	VariantSKU   string  `json:"variantSku,omitempty"`
	VariantSize  string  `json:"variantSize,omitempty"`
	VariantColor string  `json:"variantColor,omitempty"`
	Title        string  `json:"title"`
	Slug         string  `json:"slug"`
	Image        string  `json:"image"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
}

type ShippingAddress struct {
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required"`
	Country      string `json:"country" validate:"required"`
}

// Order is a write-once snapshot: the money fields are computed at checkout
// and never recomputed afterwards.
type Order struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"userId,omitempty"`
	GuestEmail              string          `json:"guestEmail,omitempty"`
	Items                   []OrderItem     `json:"items"`
	ShippingAddress         ShippingAddress `json:"shippingAddress"`
	PaymentMethod           string          `json:"paymentMethod"`
	Currency                string          `json:"currency"`
	PkrPerUsd               *float64        `json:"pkrPerUsd,omitempty"`
	PaymentStatus           PaymentStatus   `json:"paymentStatus"`
	CouponCode              string          `json:"couponCode,omitempty"`
	CouponDiscountAmount    float64         `json:"couponDiscountAmount"`
	PromotionID             string          `json:"promotionId,omitempty"`
	PromotionName           string          `json:"promotionName,omitempty"`
	PromotionDiscountAmount float64         `json:"promotionDiscountAmount"`
	DiscountAmount          float64         `json:"discountAmount"`
	ItemsSubtotal           float64         `json:"itemsSubtotal"`
	ShippingAmount          float64         `json:"shippingAmount"`
	TaxAmount               float64         `json:"taxAmount"`
	TotalAmount             float64         `json:"totalAmount"`
	OrderStatus             OrderStatus     `json:"orderStatus"`
	CreatedAt               time.Time       `json:"createdAt"`
}
