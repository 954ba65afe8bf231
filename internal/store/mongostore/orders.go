package mongostore

import (
	"context"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	doc := orderToDoc(order)
	doc.ID = primitive.NewObjectID()

	if _, err := s.col(colOrders).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", mapErr(err))
	}
	order.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, store.ErrNotFound
	}
	var doc orderDoc
	if err := s.col(colOrders).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Order{}, mapErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, store.ErrNotFound
	}

	var before orderDoc
	err = s.col(colOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"orderStatus": string(status), "updatedAt": s.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	return before.toModel(), nil
}

func (s *Store) GetReturn(ctx context.Context, id string) (model.ReturnRequest, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.ReturnRequest{}, store.ErrNotFound
	}
	var doc returnDoc
	if err := s.col(colReturns).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.ReturnRequest{}, mapErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) SetReturnStatus(ctx context.Context, id string, status model.ReturnStatus) (model.ReturnRequest, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.ReturnRequest{}, store.ErrNotFound
	}

	var before returnDoc
	err = s.col(colReturns).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": s.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		return model.ReturnRequest{}, mapErr(err)
	}
	return before.toModel(), nil
}
