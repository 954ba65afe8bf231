package mongostore

import (
	"context"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

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

	doc := reviewDoc{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		UserID:    userID,
		OrderID:   orderID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		IsHidden:  review.IsHidden,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.CreatedAt,
	}
	if _, err := s.col(colReviews).InsertOne(ctx, doc); err != nil {
		return mapErr(err)
	}
	review.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetReview(ctx context.Context, id string) (model.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Review{}, store.ErrNotFound
	}
	var doc reviewDoc
	if err := s.col(colReviews).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Review{}, mapErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) UpdateReview(ctx context.Context, id string, patch store.ReviewPatch) (model.Review, model.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Review{}, model.Review{}, store.ErrNotFound
	}

	set := bson.M{"updatedAt": s.now().UTC()}
	if patch.Rating != nil {
		set["rating"] = *patch.Rating
	}
	if patch.Comment != nil {
		set["comment"] = *patch.Comment
	}
	if patch.IsHidden != nil {
		set["isHidden"] = *patch.IsHidden
	}

	var before reviewDoc
	err = s.col(colReviews).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return model.Review{}, model.Review{}, mapErr(err)
	}

	after := before.toModel()
	if patch.Rating != nil {
		after.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		after.Comment = *patch.Comment
	}
	if patch.IsHidden != nil {
		after.IsHidden = *patch.IsHidden
	}
	return before.toModel(), after, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) (model.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Review{}, store.ErrNotFound
	}
	var doc reviewDoc
	if err := s.col(colReviews).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Review{}, mapErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) VisibleRatingStats(ctx context.Context, productID string) (store.RatingStats, error) {
	oid, err := parseID(productID)
	if err != nil {
		return store.RatingStats{}, store.ErrInvalidID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": oid, "isHidden": false}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$productId",
			"avg":   bson.M{"$avg": "$rating"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.col(colReviews).Aggregate(ctx, pipeline)
	if err != nil {
		return store.RatingStats{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	var rows []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return store.RatingStats{}, fmt.Errorf("decode review aggregate: %w", err)
	}
	if len(rows) == 0 {
		return store.RatingStats{}, nil
	}
	return store.RatingStats{Avg: rows[0].Avg, Count: rows[0].Count}, nil
}

func (s *Store) SetRatingStats(ctx context.Context, productID string, stats store.RatingStats) error {
	oid, err := parseID(productID)
	if err != nil {
		return store.ErrInvalidID
	}
	_, err = s.col(colProducts).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"ratingAvg":     stats.Avg,
		"ratingCount":   stats.Count,
		"averageRating": stats.Avg,
		"reviewsCount":  stats.Count,
	}})
	if err != nil {
		return fmt.Errorf("update rating stats: %w", err)
	}
	return nil
}
