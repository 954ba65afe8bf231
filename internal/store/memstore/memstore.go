// Package memstore is an in-process store.Store used for local development
// (STORE_DRIVER=memory) and tests. It follows the same query semantics as
// the Mongo and Postgres backends.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu         sync.RWMutex
	products   map[string]model.Product
	deals      map[string]model.Deal
	coupons    map[string]model.Coupon
	promotions map[string]model.Promotion
	orders     map[string]model.Order
	returns    map[string]model.ReturnRequest
	reviews    map[string]model.Review
	settings   map[string]any

	// FailSoldCount makes BulkSetSoldCounts report an error for these ids.
	FailSoldCount map[string]bool

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		products:      map[string]model.Product{},
		deals:         map[string]model.Deal{},
		coupons:       map[string]model.Coupon{},
		promotions:    map[string]model.Promotion{},
		orders:        map[string]model.Order{},
		returns:       map[string]model.ReturnRequest{},
		reviews:       map[string]model.Review{},
		FailSoldCount: map[string]bool{},
		now:           time.Now,
	}
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

// PutProduct inserts or replaces a product and returns its id.
func (s *Store) PutProduct(p model.Product) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.products[p.ID] = p
	return p.ID
}

func (s *Store) PutDeal(d model.Deal) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	s.deals[d.ID] = d
	return d.ID
}

func (s *Store) PutCoupon(c model.Coupon) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	s.coupons[c.ID] = c
	return c.ID
}

func (s *Store) PutPromotion(p model.Promotion) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	s.promotions[p.ID] = p
	return p.ID
}

// PutOrder stores an order as-is, keeping its status.
func (s *Store) PutOrder(o model.Order) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = newID()
	}
	s.orders[o.ID] = o
	return o.ID
}

func (s *Store) PutReturn(r model.ReturnRequest) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	s.returns[r.ID] = r
	return r.ID
}

func (s *Store) DeleteOrder(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
}

func (s *Store) SetSettings(doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = doc
}
