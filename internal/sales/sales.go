package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const archivePrefix = "reports/sold-count/"

// Archiver stores batch summaries. storage.ObjectStore satisfies it.
type Archiver interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string, cacheControl string) (string, error)
}

type BatchSummary struct {
	RunID      string            `json:"runId"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Products   int               `json:"products"`
	Matched    int64             `json:"matched"`
	Modified   int64             `json:"modified"`
	Errors     []store.BulkError `json:"errors"`
	ArchiveURL string            `json:"archiveUrl,omitempty"`
}

type Service struct {
	store   store.Sales
	archive Archiver
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewService wires the reconciliation service. archive may be nil.
func NewService(st store.Sales, archive Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   st,
		archive: archive,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Net is sold minus returned, floored at zero.
func Net(sold, returned int64) int64 {
	if sold-returned < 0 {
		return 0
	}
	return sold - returned
}

// OrderStatusAffects reports whether an order moving from before to after
// changes any product's soldCount.
func OrderStatusAffects(before, after model.OrderStatus) bool {
	return before != after && (before == model.OrderDelivered || after == model.OrderDelivered)
}

func ReturnStatusAffects(before, after model.ReturnStatus) bool {
	return before != after && (before == model.ReturnCompleted || after == model.ReturnCompleted)
}

// Recompute rewrites one product's soldCount from delivered orders and
// completed returns and returns the new value. Unknown or malformed ids
// yield 0 without writing anything.
func (s *Service) Recompute(ctx context.Context, productID string) (int64, error) {
	exists, err := s.store.ProductExists(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidID) {
			return 0, nil
		}
		return 0, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return 0, nil
	}

	sold, err := s.store.DeliveredQuantity(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("delivered quantity: %w", err)
	}
	returned, err := s.store.ReturnedQuantity(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("returned quantity: %w", err)
	}

	next := Net(sold, returned)
	if err := s.store.SetSoldCount(ctx, productID, next); err != nil {
		return 0, fmt.Errorf("set sold count: %w", err)
	}

	s.logger.Debug("sold count recomputed",
		zap.String("productId", productID),
		zap.Int64("sold", sold),
		zap.Int64("returned", returned),
		zap.Int64("soldCount", next),
	)
	return next, nil
}

// Plan merges the grouped aggregates into one update per product. Products
// that still carry a soldCount but no longer appear in either aggregate are
// reset to 0.
func Plan(delivered, returned []store.ProductCount, withSoldCount []string) []store.SoldCountUpdate {
	sold := make(map[string]int64, len(delivered))
	for _, c := range delivered {
		sold[c.ProductID] += c.Quantity
	}
	back := make(map[string]int64, len(returned))
	for _, c := range returned {
		back[c.ProductID] += c.Quantity
	}

	ids := make(map[string]struct{}, len(sold)+len(back)+len(withSoldCount))
	for id := range sold {
		ids[id] = struct{}{}
	}
	for id := range back {
		ids[id] = struct{}{}
	}
	for _, id := range withSoldCount {
		ids[id] = struct{}{}
	}

	updates := make([]store.SoldCountUpdate, 0, len(ids))
	for id := range ids {
		updates = append(updates, store.SoldCountUpdate{ProductID: id, SoldCount: Net(sold[id], back[id])})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].ProductID < updates[j].ProductID })
	return updates
}

// RecomputeAll reconciles every product in one grouped pass. It runs to
// completion even if ctx is cancelled. Per-product write failures are
// reported in the summary.
func (s *Service) RecomputeAll(ctx context.Context) (BatchSummary, error) {
	ctx = context.WithoutCancel(ctx)
	summary := BatchSummary{RunID: s.newID(), StartedAt: s.now().UTC(), Errors: []store.BulkError{}}

	delivered, err := s.store.DeliveredQuantities(ctx)
	if err != nil {
		return summary, fmt.Errorf("delivered quantities: %w", err)
	}
	returned, err := s.store.ReturnedQuantities(ctx)
	if err != nil {
		return summary, fmt.Errorf("returned quantities: %w", err)
	}
	withSoldCount, err := s.store.ProductsWithSoldCount(ctx)
	if err != nil {
		return summary, fmt.Errorf("products with sold count: %w", err)
	}

	updates := Plan(delivered, returned, withSoldCount)
	summary.Products = len(updates)
	if len(updates) > 0 {
		res, err := s.store.BulkSetSoldCounts(ctx, updates)
		if err != nil {
			return summary, fmt.Errorf("bulk update: %w", err)
		}
		summary.Matched = res.Matched
		summary.Modified = res.Modified
		if len(res.Errors) > 0 {
			summary.Errors = res.Errors
		}
	}
	summary.FinishedAt = s.now().UTC()

	fields := []zap.Field{
		zap.String("runId", summary.RunID),
		zap.Int("products", summary.Products),
		zap.Int64("matched", summary.Matched),
		zap.Int64("modified", summary.Modified),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if len(summary.Errors) > 0 {
		s.logger.Warn("sold count batch finished with errors", fields...)
	} else {
		s.logger.Info("sold count batch finished", fields...)
	}

	if s.archive != nil {
		url, err := s.archiveSummary(ctx, summary)
		if err != nil {
			s.logger.Warn("sold count summary archive failed", zap.String("runId", summary.RunID), zap.Error(err))
		} else {
			summary.ArchiveURL = url
		}
	}
	return summary, nil
}

func (s *Service) archiveSummary(ctx context.Context, summary BatchSummary) (string, error) {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	return s.archive.PutObject(ctx, archivePrefix+summary.RunID+".json", body, "application/json", "no-store")
}
