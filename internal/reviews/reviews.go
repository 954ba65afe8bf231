package reviews

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"go.uber.org/zap"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

type ErrorCode string

const (
	ErrReviewInvalid   ErrorCode = "REVIEW_INVALID"
	ErrReviewDuplicate ErrorCode = "REVIEW_DUPLICATE"
	ErrReviewNotFound  ErrorCode = "REVIEW_NOT_FOUND"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

type Stats = store.RatingStats

type Service struct {
	store  store.Reviews
	logger *zap.Logger
}

func NewService(st store.Reviews, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// Aggregate is the mean and count over visible ratings. Hidden reviews are
// skipped; the mean is 0 when nothing is visible.
func Aggregate(reviews []model.Review) Stats {
	var (
		sum   int64
		count int64
	)
	for _, r := range reviews {
		if r.IsHidden {
			continue
		}
		sum += int64(r.Rating)
		count++
	}
	if count == 0 {
		return Stats{}
	}
	return Stats{Avg: float64(sum) / float64(count), Count: count}
}

// ShouldRecompute reports whether an edit changes anything the aggregate
// depends on.
func ShouldRecompute(before, after model.Review) bool {
	return before.Rating != after.Rating ||
		before.IsHidden != after.IsHidden ||
		before.ProductID != after.ProductID
}

// Recompute rewrites the product's rating fields from its visible reviews.
func (s *Service) Recompute(ctx context.Context, productID string) (Stats, error) {
	stats, err := s.store.VisibleRatingStats(ctx, productID)
	if err != nil {
		return Stats{}, fmt.Errorf("rating stats: %w", err)
	}
	if err := s.store.SetRatingStats(ctx, productID, stats); err != nil {
		return Stats{}, fmt.Errorf("set rating stats: %w", err)
	}
	s.logger.Debug("review stats recomputed",
		zap.String("productId", productID),
		zap.Float64("avg", stats.Avg),
		zap.Int64("count", stats.Count),
	)
	return stats, nil
}

type CreateInput struct {
	ProductID string
	UserID    string
	OrderID   string
	Rating    int
	Comment   string
}

func invalid(message string) *Error {
	return &Error{Code: ErrReviewInvalid, Message: message, StatusCode: http.StatusBadRequest}
}

func Validate(in CreateInput) *Error {
	if strings.TrimSpace(in.ProductID) == "" || strings.TrimSpace(in.OrderID) == "" || strings.TrimSpace(in.UserID) == "" {
		return invalid("productId, orderId and userId are required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return invalid("rating must be between 1 and 5")
	}
	if len(in.Comment) > MaxCommentLength {
		return invalid("comment is too long")
	}
	return nil
}

// Create stores a review and refreshes the product aggregate. A shopper
// may review a product once per order.
func (s *Service) Create(ctx context.Context, in CreateInput) (model.Review, Stats, error) {
	if verr := Validate(in); verr != nil {
		return model.Review{}, Stats{}, verr
	}

	review := model.Review{
		ProductID: strings.TrimSpace(in.ProductID),
		UserID:    strings.TrimSpace(in.UserID),
		OrderID:   strings.TrimSpace(in.OrderID),
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.store.CreateReview(ctx, &review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return model.Review{}, Stats{}, &Error{Code: ErrReviewDuplicate, Message: "You already reviewed this product for this order", StatusCode: http.StatusConflict}
		case errors.Is(err, store.ErrInvalidID):
			return model.Review{}, Stats{}, invalid("invalid id")
		}
		return model.Review{}, Stats{}, fmt.Errorf("create review: %w", err)
	}

	stats, err := s.Recompute(ctx, review.ProductID)
	if err != nil {
		return review, Stats{}, err
	}
	return review, stats, nil
}

// Update applies patch and recomputes only when the visible aggregate can
// change.
func (s *Service) Update(ctx context.Context, id string, patch store.ReviewPatch) (model.Review, bool, error) {
	if patch.Rating != nil && (*patch.Rating < MinRating || *patch.Rating > MaxRating) {
		return model.Review{}, false, invalid("rating must be between 1 and 5")
	}
	if patch.Comment != nil && len(*patch.Comment) > MaxCommentLength {
		return model.Review{}, false, invalid("comment is too long")
	}

	before, after, err := s.store.UpdateReview(ctx, id, patch)
	if err != nil {
		return model.Review{}, false, s.mapNotFound(err)
	}
	if !ShouldRecompute(before, after) {
		return after, false, nil
	}
	if _, err := s.Recompute(ctx, after.ProductID); err != nil {
		return after, false, err
	}
	return after, true, nil
}

func (s *Service) SetHidden(ctx context.Context, id string, hidden bool) (model.Review, error) {
	review, _, err := s.Update(ctx, id, store.ReviewPatch{IsHidden: &hidden})
	return review, err
}

func (s *Service) Delete(ctx context.Context, id string) (model.Review, error) {
	review, err := s.store.DeleteReview(ctx, id)
	if err != nil {
		return model.Review{}, s.mapNotFound(err)
	}
	if _, err := s.Recompute(ctx, review.ProductID); err != nil {
		return review, err
	}
	return review, nil
}

func (s *Service) mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Code: ErrReviewNotFound, Message: "Review not found", StatusCode: http.StatusNotFound}
	}
	return err
}
