package mongostore

import (
	"context"
	"fmt"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) FindCouponByCode(ctx context.Context, code string) (model.Coupon, error) {
	var doc couponDoc
	if err := s.col(colCoupons).FindOne(ctx, bson.M{"code": code}).Decode(&doc); err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return doc.toModel(), nil
}

// ActivePromotions returns active promotions whose optional window
// contains now.
func (s *Store) ActivePromotions(ctx context.Context, now time.Time) ([]model.Promotion, error) {
	query := bson.M{
		"isActive": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{bson.M{"startsAt": nil}, bson.M{"startsAt": bson.M{"$lte": now}}}},
			bson.M{"$or": bson.A{bson.M{"expiresAt": nil}, bson.M{"expiresAt": bson.M{"$gte": now}}}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "_id", Value: 1}})

	cur, err := s.col(colPromotions).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find promotions: %w", err)
	}
	var docs []promotionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}

	out := make([]model.Promotion, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) CountCustomerCouponUses(ctx context.Context, code, userID string) (int64, error) {
	uid, err := parseID(userID)
	if err != nil {
		return 0, nil
	}
	n, err := s.col(colOrders).CountDocuments(ctx, bson.M{
		"couponCode":  code,
		"userId":      uid,
		"orderStatus": bson.M{"$ne": string(model.OrderCancelled)},
	})
	if err != nil {
		return 0, fmt.Errorf("count coupon uses: %w", err)
	}
	return n, nil
}

func (s *Store) IncrementCouponUsage(ctx context.Context, couponID string) error {
	oid, err := parseID(couponID)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.col(colCoupons).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"usedCount": 1}})
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
