package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-services/internal/model"
	"storefront-services/internal/queue"
	"storefront-services/internal/sales"
	"storefront-services/internal/store"
	"storefront-services/pkg/response"

	"go.uber.org/zap"
)

type statusUpdateRequest struct {
	Status string `json:"status"`
}

func parseOrderStatus(value string) (model.OrderStatus, bool) {
	for _, s := range []model.OrderStatus{model.OrderPending, model.OrderProcessing, model.OrderShipped, model.OrderDelivered, model.OrderCancelled} {
		if strings.EqualFold(strings.TrimSpace(value), string(s)) {
			return s, true
		}
	}
	return "", false
}

func parseReturnStatus(value string) (model.ReturnStatus, bool) {
	s := model.ReturnStatus(strings.ToLower(strings.TrimSpace(value)))
	return s, s.Valid()
}

// publishSoldCountChange emits the event that drives the sold-count
// recompute. When the event cannot be emitted the products are recomputed
// inline instead.
func (h *Handler) publishSoldCountChange(ctx context.Context, routingKey string, payload any, productIDs []string) {
	if h.Events != nil {
		err := h.Events.Emit(ctx, routingKey, payload)
		if err == nil {
			return
		}
		h.Logger.Warn("event emit failed; recomputing inline", zap.String("routingKey", routingKey), zapError(err))
	}
	if h.Sales == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, id := range productIDs {
		if _, err := h.Sales.Recompute(ctx, id); err != nil {
			h.Logger.Error("sold count recompute failed", zap.String("productId", id), zapError(err))
		}
	}
}

func (h *Handler) AdminOrderStatusUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := readPathString(r, "id")

	var body statusUpdateRequest
	if !decodeBody(w, r, &body) {
		return
	}
	status, ok := parseOrderStatus(body.Status)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order status")
		return
	}

	before, err := h.Store.SetOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("order status update failed", zap.String("orderId", orderID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order status")
		return
	}

	after := before
	after.OrderStatus = status
	affects := sales.OrderStatusAffects(before.OrderStatus, status)
	if affects {
		productIDs := queue.OrderProductIDs(after)
		h.publishSoldCountChange(ctx, queue.RKOrderStatusUpdated, queue.OrderStatusUpdatedEvent{
			Event:      queue.RKOrderStatusUpdated,
			OrderID:    after.ID,
			Before:     before.OrderStatus,
			After:      status,
			ProductIDs: productIDs,
			UpdatedAt:  h.now().UTC(),
		}, productIDs)
	}

	h.Logger.Info("order status updated",
		zap.String("orderId", orderID),
		zap.String("from", string(before.OrderStatus)),
		zap.String("to", string(status)),
	)
	response.Success(w, map[string]any{
		"order":              after,
		"previousStatus":     before.OrderStatus,
		"soldCountRecompute": affects,
	})
}

func (h *Handler) AdminReturnStatusUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	returnID := readPathString(r, "id")

	var body statusUpdateRequest
	if !decodeBody(w, r, &body) {
		return
	}
	status, ok := parseReturnStatus(body.Status)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid return status")
		return
	}

	before, err := h.Store.SetReturnStatus(ctx, returnID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			response.Error(w, http.StatusNotFound, "RETURN_NOT_FOUND", "Return request not found")
			return
		}
		h.Logger.Error("return status update failed", zap.String("returnId", returnID), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update return status")
		return
	}

	after := before
	after.Status = status
	affects := sales.ReturnStatusAffects(before.Status, status)
	if affects {
		h.publishSoldCountChange(ctx, queue.RKReturnStatusUpdated, queue.ReturnStatusUpdatedEvent{
			Event:     queue.RKReturnStatusUpdated,
			ReturnID:  after.ID,
			OrderID:   after.OrderID,
			ProductID: after.ProductID,
			Before:    before.Status,
			After:     status,
			UpdatedAt: h.now().UTC(),
		}, []string{after.ProductID})
	}

	response.Success(w, map[string]any{
		"return":             after,
		"previousStatus":     before.Status,
		"soldCountRecompute": affects,
	})
}
