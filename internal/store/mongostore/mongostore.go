// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultDatabase = "test"
	settingsKey     = "global"

	colProducts   = "products"
	colOrders     = "orders"
	colReturns    = "returnrequests"
	colReviews    = "reviews"
	colDeals      = "deals"
	colCoupons    = "coupons"
	colPromotions = "promotions"
	colSettings   = "sitesettings"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// ValidateURI rejects empty URIs and URIs that still carry template
// placeholders.
func ValidateURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", errors.New("missing MONGODB_URI")
	}
	if strings.ContainsAny(uri, "<>") {
		return "", errors.New("invalid MONGODB_URI: contains '<' or '>' placeholders")
	}
	lower := strings.ToLower(uri)
	if strings.Contains(lower, "your_user") || strings.Contains(lower, "your_password") {
		return "", errors.New("invalid MONGODB_URI: contains YOUR_USER or YOUR_PASSWORD placeholders")
	}
	return uri, nil
}

// DatabaseName picks the database from the URI path, falling back to
// DefaultDatabase.
func DatabaseName(uri string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || cs.Database == "" {
		return DefaultDatabase
	}
	return cs.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	uri, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(database) == "" {
		database = DatabaseName(uri)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

// EnsureIndexes creates the unique keys the services rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colCoupons: {{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colReturns: {{Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "productId", Value: 1}, {Key: "variantId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colReviews: {{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "orderId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		colOrders:  {{Keys: bson.D{{Key: "orderStatus", Value: 1}}}},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseID(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func optionalID(id string) *primitive.ObjectID {
	oid, err := parseID(id)
	if err != nil {
		return nil
	}
	return &oid
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}
