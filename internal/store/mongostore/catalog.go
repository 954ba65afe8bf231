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

func (s *Store) GetProduct(ctx context.Context, id string) (model.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Product{}, store.ErrNotFound
	}

	var doc productDoc
	if err := s.col(colProducts).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Product{}, mapErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	query := bson.M{}
	if filter.IDs != nil {
		query["_id"] = bson.M{"$in": parseIDs(filter.IDs)}
	}
	if filter.CategorySlug != "" {
		query["categorySlug"] = filter.CategorySlug
	}
	if filter.ActiveOnly {
		query["isActive"] = bson.M{"$ne": false}
	}

	opts := options.Find().SetSort(bson.D{{Key: "soldCount", Value: -1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cur, err := s.col(colProducts).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) ActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error) {
	query := bson.M{
		"isActive":  true,
		"startsAt":  bson.M{"$lte": now},
		"expiresAt": bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}, {Key: "expiresAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.col(colDeals).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find deals: %w", err)
	}
	var docs []dealDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode deals: %w", err)
	}

	out := make([]model.Deal, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) StorefrontSettings(ctx context.Context) (map[string]any, error) {
	var doc bson.M
	err := s.col(colSettings).FindOne(ctx, bson.M{"key": settingsKey}).Decode(&doc)
	if err != nil {
		if mapErr(err) == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return map[string]any(doc), nil
}
