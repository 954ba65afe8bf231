package pgstore

import (
	"context"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reviewColumns = `id::text, product_id::text, user_id::text, order_id::text, rating, comment, is_hidden, created_at`

func scanReview(row pgx.Row) (model.Review, error) {
	var r model.Review
	if err := row.Scan(&r.ID, &r.ProductID, &r.UserID, &r.OrderID, &r.Rating, &r.Comment, &r.IsHidden, &r.CreatedAt); err != nil {
		return model.Review{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) CreateReview(ctx context.Context, review *model.Review) error {
	productID, err := parseID(review.ProductID)
	if err != nil {
		return store.ErrInvalidID
	}
	userID, err := parseID(review.UserID)
	if err != nil {
		return store.ErrInvalidID
	}
	orderID, err := parseID(review.OrderID)
	if err != nil {
		return store.ErrInvalidID
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = s.now().UTC()
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		insert into reviews (id, product_id, user_id, order_id, rating, comment, is_hidden, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$8)
	`, id, productID, userID, orderID, review.Rating, review.Comment, review.IsHidden, review.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	review.ID = id
	return nil
}

func (s *Store) GetReview(ctx context.Context, id string) (model.Review, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.Review{}, store.ErrNotFound
	}
	return scanReview(s.pool.QueryRow(ctx, `select `+reviewColumns+` from reviews where id = $1`, rid))
}

func (s *Store) UpdateReview(ctx context.Context, id string, patch store.ReviewPatch) (model.Review, model.Review, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.Review{}, model.Review{}, store.ErrNotFound
	}

	var before, after model.Review
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		before, err = scanReview(tx.QueryRow(ctx, `select `+reviewColumns+` from reviews where id = $1 for update`, rid))
		if err != nil {
			return err
		}
		after, err = scanReview(tx.QueryRow(ctx, `
			update reviews set
				rating = coalesce($2, rating),
				comment = coalesce($3, comment),
				is_hidden = coalesce($4, is_hidden),
				updated_at = $5
			where id = $1
			returning `+reviewColumns, rid, patch.Rating, patch.Comment, patch.IsHidden, s.now().UTC()))
		return err
	})
	if err != nil {
		return model.Review{}, model.Review{}, mapErr(err)
	}
	return before, after, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) (model.Review, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.Review{}, store.ErrNotFound
	}
	return scanReview(s.pool.QueryRow(ctx, `delete from reviews where id = $1 returning `+reviewColumns, rid))
}

func (s *Store) VisibleRatingStats(ctx context.Context, productID string) (store.RatingStats, error) {
	pid, err := parseID(productID)
	if err != nil {
		return store.RatingStats{}, store.ErrInvalidID
	}
	var stats store.RatingStats
	err = s.pool.QueryRow(ctx, `
		select coalesce(avg(rating), 0)::float8, count(*)
		from reviews
		where product_id = $1 and not is_hidden
	`, pid).Scan(&stats.Avg, &stats.Count)
	if err != nil {
		return store.RatingStats{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return stats, nil
}

func (s *Store) SetRatingStats(ctx context.Context, productID string, stats store.RatingStats) error {
	pid, err := parseID(productID)
	if err != nil {
		return store.ErrInvalidID
	}
	_, err = s.pool.Exec(ctx, `
		update products
		set rating_avg = $2, rating_count = $3, average_rating = $2, reviews_count = $3
		where id = $1
	`, pid, stats.Avg, stats.Count)
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	return nil
}
