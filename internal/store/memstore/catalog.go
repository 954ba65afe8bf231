package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
)

func (s *Store) GetProduct(_ context.Context, id string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context, filter store.ProductFilter) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var wanted map[string]bool
	if filter.IDs != nil {
		wanted = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = true
		}
	}

	out := []model.Product{}
	for _, p := range s.products {
		if wanted != nil && !wanted[p.ID] {
			continue
		}
		if filter.CategorySlug != "" && p.CategorySlug != filter.CategorySlug {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SoldCount != out[j].SoldCount {
			return out[i].SoldCount > out[j].SoldCount
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) ActiveDeals(_ context.Context, now time.Time) ([]model.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Deal{}
	for _, d := range s.deals {
		if d.IsActiveAt(now) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) StorefrontSettings(context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, nil
	}
	out := make(map[string]any, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *Store) FindCouponByCode(_ context.Context, code string) (model.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.coupons {
		if c.Code == code {
			return c, nil
		}
	}
	return model.Coupon{}, store.ErrNotFound
}

func (s *Store) ActivePromotions(_ context.Context, now time.Time) ([]model.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Promotion{}
	for _, p := range s.promotions {
		if !p.IsActive {
			continue
		}
		if p.StartsAt != nil && now.Before(*p.StartsAt) {
			continue
		}
		if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CountCustomerCouponUses(_ context.Context, code, userID string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, o := range s.orders {
		if o.CouponCode == code && o.UserID == userID && o.OrderStatus != model.OrderCancelled {
			n++
		}
	}
	return n, nil
}

func (s *Store) IncrementCouponUsage(_ context.Context, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[couponID]
	if !ok {
		return store.ErrNotFound
	}
	c.UsedCount++
	s.coupons[couponID] = c
	return nil
}
