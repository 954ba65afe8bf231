package memstore

import (
	"context"

	"storefront-services/internal/model"
	"storefront-services/internal/reviews"
	"storefront-services/internal/store"
)

func (s *Store) CreateReview(_ context.Context, review *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.ProductID == review.ProductID && r.OrderID == review.OrderID && r.UserID == review.UserID {
			return store.ErrDuplicate
		}
	}
	review.ID = newID()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = s.now().UTC()
	}
	s.reviews[review.ID] = *review
	return nil
}

func (s *Store) GetReview(_ context.Context, id string) (model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) UpdateReview(_ context.Context, id string, patch store.ReviewPatch) (model.Review, model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.reviews[id]
	if !ok {
		return model.Review{}, model.Review{}, store.ErrNotFound
	}
	after := before
	if patch.Rating != nil {
		after.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		after.Comment = *patch.Comment
	}
	if patch.IsHidden != nil {
		after.IsHidden = *patch.IsHidden
	}
	s.reviews[id] = after
	return before, after, nil
}

func (s *Store) DeleteReview(_ context.Context, id string) (model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return model.Review{}, store.ErrNotFound
	}
	delete(s.reviews, id)
	return r, nil
}

func (s *Store) VisibleRatingStats(_ context.Context, productID string) (store.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []model.Review
	for _, r := range s.reviews {
		if r.ProductID == productID {
			matched = append(matched, r)
		}
	}
	return reviews.Aggregate(matched), nil
}

func (s *Store) SetRatingStats(_ context.Context, productID string, stats store.RatingStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.RatingAvg, p.AverageRating = stats.Avg, stats.Avg
	p.RatingCount, p.ReviewsCount = stats.Count, stats.Count
	s.products[productID] = p
	return nil
}
