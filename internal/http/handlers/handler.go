package handlers

import (
	"context"
	"time"

	"storefront-services/internal/checkout"
	"storefront-services/internal/config"
	"storefront-services/internal/currency"
	"storefront-services/internal/queue"
	"storefront-services/internal/reviews"
	"storefront-services/internal/sales"
	"storefront-services/internal/storage"
	"storefront-services/internal/store"

	"go.uber.org/zap"
)

// Archive is the object store used for reports and batch summaries.
// storage.ObjectStore satisfies it.
type Archive interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, cacheControl string) (string, error)
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
}

// Events publishes storefront events. queue.Emitter satisfies it.
type Events interface {
	Emit(ctx context.Context, routingKey string, payload any) error
}

type Handler struct {
	Store    store.Store
	Logger   *zap.Logger
	Config   config.Config
	Queue    *queue.Client
	Events   Events
	Dispatch queue.HandlerFunc
	Rates    *currency.RateCache
	Checkout *checkout.Service
	Sales    *sales.Service
	Reviews  *reviews.Service
	Archive  Archive

	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) pkrPerUsd() float64 {
	if h.Rates == nil {
		return 0
	}
	return h.Rates.PkrPerUsd()
}
