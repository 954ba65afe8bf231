package handlers

import (
	"errors"
	"net/http"
	"strings"

	"storefront-services/internal/middleware"
	"storefront-services/internal/model"
	"storefront-services/internal/reviews"
	"storefront-services/internal/store"
	"storefront-services/pkg/response"

	"go.uber.org/zap"
)

type reviewCreateRequest struct {
	ProductID string `json:"productId"`
	OrderID   string `json:"orderId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func orderHasProduct(order model.Order, productID string) bool {
	for _, item := range order.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// PublicReviewCreate lets a signed-in shopper review a product from one of
// their delivered orders.
func (h *Handler) PublicReviewCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.CustomerID(ctx)
	if userID == "" {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to leave a review")
		return
	}

	var body reviewCreateRequest
	if !decodeBody(w, r, &body) {
		return
	}
	in := reviews.CreateInput{
		ProductID: strings.TrimSpace(body.ProductID),
		UserID:    userID,
		OrderID:   strings.TrimSpace(body.OrderID),
		Rating:    body.Rating,
		Comment:   body.Comment,
	}
	if verr := reviews.Validate(in); verr != nil {
		response.Error(w, verr.StatusCode, string(verr.Code), verr.Message)
		return
	}

	order, err := h.Store.GetOrder(ctx, in.OrderID)
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
		h.Logger.Error("review order load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create review")
		return
	}
	if err != nil || order.UserID != userID || order.OrderStatus != model.OrderDelivered || !orderHasProduct(order, in.ProductID) {
		response.Error(w, http.StatusForbidden, "REVIEW_NOT_ELIGIBLE", "Only delivered purchases can be reviewed")
		return
	}

	review, stats, err := h.Reviews.Create(ctx, in)
	if err != nil {
		h.writeServiceError(w, err, "review create failed")
		return
	}

	h.Logger.Info("review created",
		zap.String("reviewId", review.ID),
		zap.String("productId", review.ProductID),
		zap.Int("rating", review.Rating),
	)
	response.Created(w, map[string]any{
		"review": review,
		"stats":  stats,
	}, "Review submitted")
}
