package memstore

import (
	"context"
	"errors"
	"sort"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
)

func (s *Store) ProductExists(_ context.Context, productID string) (bool, error) {
	if productID == "" {
		return false, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.products[productID]
	return ok, nil
}

func (s *Store) delivered() map[string]int64 {
	out := map[string]int64{}
	for _, o := range s.orders {
		if o.OrderStatus != model.OrderDelivered {
			continue
		}
		for _, item := range o.Items {
			out[item.ProductID] += int64(item.Quantity)
		}
	}
	return out
}

// returned follows the join: a completed return counts the quantities of
// the referenced order's items with the same product and variant. Returns
// whose order is gone are skipped.
func (s *Store) returned() map[string]int64 {
	out := map[string]int64{}
	for _, r := range s.returns {
		if r.Status != model.ReturnCompleted {
			continue
		}
		o, ok := s.orders[r.OrderID]
		if !ok {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == r.ProductID && item.VariantID == r.VariantID {
				out[r.ProductID] += int64(item.Quantity)
			}
		}
	}
	return out
}

func (s *Store) DeliveredQuantity(_ context.Context, productID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delivered()[productID], nil
}

func (s *Store) ReturnedQuantity(_ context.Context, productID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returned()[productID], nil
}

func (s *Store) SetSoldCount(_ context.Context, productID string, soldCount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.SoldCount = soldCount
	s.products[productID] = p
	return nil
}

func toCounts(m map[string]int64) []store.ProductCount {
	out := make([]store.ProductCount, 0, len(m))
	for id, q := range m {
		out = append(out, store.ProductCount{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *Store) DeliveredQuantities(context.Context) ([]store.ProductCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toCounts(s.delivered()), nil
}

func (s *Store) ReturnedQuantities(context.Context) ([]store.ProductCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return toCounts(s.returned()), nil
}

func (s *Store) ProductsWithSoldCount(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for id, p := range s.products {
		if p.SoldCount > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

var errWriteRejected = errors.New("write rejected")

// BulkSetSoldCounts never creates products: ids without a product are
// neither matched nor reported as errors.
func (s *Store) BulkSetSoldCounts(_ context.Context, updates []store.SoldCountUpdate) (store.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := store.BulkResult{}
	for i, u := range updates {
		if s.FailSoldCount[u.ProductID] {
			res.Errors = append(res.Errors, store.BulkError{Index: i, ProductID: u.ProductID, Message: errWriteRejected.Error()})
			continue
		}
		p, ok := s.products[u.ProductID]
		if !ok {
			continue
		}
		res.Matched++
		if p.SoldCount != u.SoldCount {
			p.SoldCount = u.SoldCount
			s.products[u.ProductID] = p
			res.Modified++
		}
	}
	return res, nil
}
