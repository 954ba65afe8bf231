package queue

import (
	"time"

	"storefront-services/internal/model"
)

const (
	RKOrderCreated        = "order.created"
	RKOrderStatusUpdated  = "order.status.updated"
	RKReturnStatusUpdated = "return.status.updated"
	RKReviewChanged       = "review.changed"
	RKSoldCountRecompute  = "sold-count.recompute"
)

func RoutingKeys() []string {
	return []string{RKOrderCreated, RKOrderStatusUpdated, RKReturnStatusUpdated, RKReviewChanged, RKSoldCountRecompute}
}

type OrderCreatedEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"orderId"`
	ProductIDs  []string  `json:"productIds"`
	TotalAmount float64   `json:"totalAmount"`
	Currency    string    `json:"currency"`
	CouponCode  string    `json:"couponCode,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderStatusUpdatedEvent struct {
	Event      string            `json:"event"`
	OrderID    string            `json:"orderId"`
	Before     model.OrderStatus `json:"before"`
	After      model.OrderStatus `json:"after"`
	ProductIDs []string          `json:"productIds"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type ReturnStatusUpdatedEvent struct {
	Event     string             `json:"event"`
	ReturnID  string             `json:"returnId"`
	OrderID   string             `json:"orderId"`
	ProductID string             `json:"productId"`
	Before    model.ReturnStatus `json:"before"`
	After     model.ReturnStatus `json:"after"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type ReviewAction string

const (
	ReviewCreated  ReviewAction = "created"
	ReviewUpdated  ReviewAction = "updated"
	ReviewHidden   ReviewAction = "hidden"
	ReviewUnhidden ReviewAction = "unhidden"
	ReviewDeleted  ReviewAction = "deleted"
)

type ReviewChangedEvent struct {
	Event     string       `json:"event"`
	ReviewID  string       `json:"reviewId"`
	ProductID string       `json:"productId"`
	Action    ReviewAction `json:"action"`
}

type SoldCountRecomputeEvent struct {
	Event       string `json:"event"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

// OrderProductIDs lists the distinct products on an order in item order.
func OrderProductIDs(order model.Order) []string {
	seen := make(map[string]struct{}, len(order.Items))
	out := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		if _, ok := seen[item.ProductID]; ok || item.ProductID == "" {
			continue
		}
		seen[item.ProductID] = struct{}{}
		out = append(out, item.ProductID)
	}
	return out
}
