package mongostore

import (
	"context"
	"errors"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type quantityRow struct {
	ID  primitive.ObjectID `bson:"_id"`
	Qty int64              `bson:"qty"`
}

type totalRow struct {
	Qty int64 `bson:"qty"`
}

// deliveredPipeline sums item quantities over Delivered orders, grouped by
// product, or into a single total when productID is set.
func deliveredPipeline(productID *primitive.ObjectID) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"orderStatus": string(model.OrderDelivered)}}},
		{{Key: "$unwind", Value: "$items"}},
	}
	groupKey := any("$items.productId")
	if productID != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"items.productId": *productID}}})
		groupKey = nil
	}
	return append(pipeline, bson.D{{Key: "$group", Value: bson.M{
		"_id": groupKey,
		"qty": bson.M{"$sum": "$items.quantity"},
	}}})
}

// returnedPipeline joins completed returns to their orders and sums the
// quantities of the items matching each return's product and variant.
// Returns whose order no longer exists drop out at the unwind.
func returnedPipeline(productID *primitive.ObjectID) mongo.Pipeline {
	match := bson.M{"status": string(model.ReturnCompleted)}
	groupKey := any("$productId")
	if productID != nil {
		match["productId"] = *productID
		groupKey = nil
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         colOrders,
			"localField":   "orderId",
			"foreignField": "_id",
			"as":           "order",
		}}},
		{{Key: "$unwind", Value: "$order"}},
		{{Key: "$unwind", Value: "$order.items"}},
		{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": bson.A{
			bson.M{"$eq": bson.A{"$order.items.productId", "$productId"}},
			bson.M{"$eq": bson.A{"$order.items.variantId", "$variantId"}},
		}}}}},
		{{Key: "$group", Value: bson.M{
			"_id": groupKey,
			"qty": bson.M{"$sum": "$order.items.quantity"},
		}}},
	}
}

func (s *Store) sumOne(ctx context.Context, collection string, pipeline mongo.Pipeline) (int64, error) {
	cur, err := s.col(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	var rows []totalRow
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode %s aggregate: %w", collection, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Qty, nil
}

func (s *Store) sumByProduct(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]store.ProductCount, error) {
	cur, err := s.col(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	var rows []quantityRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s aggregate: %w", collection, err)
	}

	out := make([]store.ProductCount, 0, len(rows))
	for _, row := range rows {
		if row.ID.IsZero() {
			continue
		}
		out = append(out, store.ProductCount{ProductID: row.ID.Hex(), Quantity: row.Qty})
	}
	return out, nil
}

func (s *Store) ProductExists(ctx context.Context, productID string) (bool, error) {
	oid, err := parseID(productID)
	if err != nil {
		return false, store.ErrInvalidID
	}
	n, err := s.col(colProducts).CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	return n > 0, nil
}

func (s *Store) DeliveredQuantity(ctx context.Context, productID string) (int64, error) {
	oid, err := parseID(productID)
	if err != nil {
		return 0, store.ErrInvalidID
	}
	return s.sumOne(ctx, colOrders, deliveredPipeline(&oid))
}

func (s *Store) ReturnedQuantity(ctx context.Context, productID string) (int64, error) {
	oid, err := parseID(productID)
	if err != nil {
		return 0, store.ErrInvalidID
	}
	return s.sumOne(ctx, colReturns, returnedPipeline(&oid))
}

func (s *Store) SetSoldCount(ctx context.Context, productID string, soldCount int64) error {
	oid, err := parseID(productID)
	if err != nil {
		return store.ErrInvalidID
	}
	_, err = s.col(colProducts).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"soldCount": soldCount}})
	if err != nil {
		return fmt.Errorf("update sold count: %w", err)
	}
	return nil
}

func (s *Store) DeliveredQuantities(ctx context.Context) ([]store.ProductCount, error) {
	return s.sumByProduct(ctx, colOrders, deliveredPipeline(nil))
}

func (s *Store) ReturnedQuantities(ctx context.Context) ([]store.ProductCount, error) {
	return s.sumByProduct(ctx, colReturns, returnedPipeline(nil))
}

func (s *Store) ProductsWithSoldCount(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.col(colProducts).Find(ctx, bson.M{"soldCount": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sold products: %w", err)
	}
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sold products: %w", err)
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID.Hex())
	}
	return out, nil
}

func (s *Store) BulkSetSoldCounts(ctx context.Context, updates []store.SoldCountUpdate) (store.BulkResult, error) {
	result := store.BulkResult{}
	models := make([]mongo.WriteModel, 0, len(updates))
	// positions maps a write model back to its update.
	positions := make([]int, 0, len(updates))

	for i, u := range updates {
		oid, err := parseID(u.ProductID)
		if err != nil {
			result.Errors = append(result.Errors, store.BulkError{Index: i, ProductID: u.ProductID, Message: "invalid product id"})
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid}).
			SetUpdate(bson.M{"$set": bson.M{"soldCount": u.SoldCount}}))
		positions = append(positions, i)
	}
	if len(models) == 0 {
		return result, nil
	}

	res, err := s.col(colProducts).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if res != nil {
		result.Matched = res.MatchedCount
		result.Modified = res.ModifiedCount
	}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) || len(bulkErr.WriteErrors) == 0 {
			return result, fmt.Errorf("bulk update sold counts: %w", err)
		}
		for _, we := range bulkErr.WriteErrors {
			idx := we.Index
			if idx >= 0 && idx < len(positions) {
				idx = positions[idx]
			}
			productID := ""
			if idx >= 0 && idx < len(updates) {
				productID = updates[idx].ProductID
			}
			result.Errors = append(result.Errors, store.BulkError{Index: idx, ProductID: productID, Message: we.Message})
		}
	}
	return result, nil
}
