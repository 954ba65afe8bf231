package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-services/internal/reviews"
	"storefront-services/internal/sales"

	"go.uber.org/zap"
)

type SoldCounter interface {
	Recompute(ctx context.Context, productID string) (int64, error)
	RecomputeAll(ctx context.Context) (sales.BatchSummary, error)
}

type RatingCounter interface {
	Recompute(ctx context.Context, productID string) (reviews.Stats, error)
}

// Dispatcher turns storefront events into denormalized counter recomputes.
type Dispatcher struct {
	sold    SoldCounter
	ratings RatingCounter
	logger  *zap.Logger
}

func NewDispatcher(sold SoldCounter, ratings RatingCounter, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sold: sold, ratings: ratings, logger: logger}
}

// Handle is a HandlerFunc. Malformed and unknown messages are logged and
// dropped; store failures are returned so the worker retries them.
func (d *Dispatcher) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case RKOrderCreated:
		var evt OrderCreatedEvent
		if !d.decode(routingKey, body, &evt) {
			return nil
		}
		d.logger.Debug("order created", zap.String("orderId", evt.OrderID), zap.Float64("total", evt.TotalAmount))
		return nil

	case RKOrderStatusUpdated:
		var evt OrderStatusUpdatedEvent
		if !d.decode(routingKey, body, &evt) {
			return nil
		}
		if !sales.OrderStatusAffects(evt.Before, evt.After) {
			return nil
		}
		return d.recomputeSold(ctx, evt.ProductIDs...)

	case RKReturnStatusUpdated:
		var evt ReturnStatusUpdatedEvent
		if !d.decode(routingKey, body, &evt) {
			return nil
		}
		if !sales.ReturnStatusAffects(evt.Before, evt.After) {
			return nil
		}
		return d.recomputeSold(ctx, evt.ProductID)

	case RKReviewChanged:
		var evt ReviewChangedEvent
		if !d.decode(routingKey, body, &evt) {
			return nil
		}
		if evt.ProductID == "" {
			return nil
		}
		if _, err := d.ratings.Recompute(ctx, evt.ProductID); err != nil {
			return fmt.Errorf("recompute ratings %s: %w", evt.ProductID, err)
		}
		return nil

	case RKSoldCountRecompute:
		summary, err := d.sold.RecomputeAll(ctx)
		if err != nil {
			return fmt.Errorf("sold count batch: %w", err)
		}
		d.logger.Info("sold count batch from queue", zap.String("runId", summary.RunID), zap.Int("products", summary.Products))
		return nil
	}

	d.logger.Warn("queue message with unknown routing key dropped", zap.String("routingKey", routingKey))
	return nil
}

func (d *Dispatcher) decode(routingKey string, body []byte, out any) bool {
	if err := json.Unmarshal(body, out); err != nil {
		d.logger.Warn("malformed queue message dropped", zap.String("routingKey", routingKey), zap.Error(err))
		return false
	}
	return true
}

func (d *Dispatcher) recomputeSold(ctx context.Context, productIDs ...string) error {
	var errs []error
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, err := d.sold.Recompute(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("recompute sold count %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
