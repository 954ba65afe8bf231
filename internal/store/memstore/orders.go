package memstore

import (
	"context"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
)

func (s *Store) CreateOrder(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = newID()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	saved := *order
	saved.Items = append([]model.OrderItem(nil), order.Items...)
	s.orders[order.ID] = saved
	return nil
}

func (s *Store) GetOrder(_ context.Context, id string) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (s *Store) SetOrderStatus(_ context.Context, id string, status model.OrderStatus) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.orders[id]
	if !ok {
		return model.Order{}, store.ErrNotFound
	}
	after := before
	after.OrderStatus = status
	s.orders[id] = after
	return before, nil
}

func (s *Store) GetReturn(_ context.Context, id string) (model.ReturnRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.returns[id]
	if !ok {
		return model.ReturnRequest{}, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) SetReturnStatus(_ context.Context, id string, status model.ReturnStatus) (model.ReturnRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.returns[id]
	if !ok {
		return model.ReturnRequest{}, store.ErrNotFound
	}
	after := before
	after.Status = status
	s.returns[id] = after
	return before, nil
}
