package pgstore

import (
	"context"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
)

const deliveredByProductSQL = `
	select i.product_id::text, coalesce(sum(i.quantity), 0)::bigint
	from orders o
	join order_items i on i.order_id = o.id
	where o.order_status = $1
	group by i.product_id`

// Returns whose order is gone fall out of the inner join.
const returnedByProductSQL = `
	select r.product_id::text, coalesce(sum(i.quantity), 0)::bigint
	from return_requests r
	join orders o on o.id = r.order_id
	join order_items i on i.order_id = o.id and i.product_id = r.product_id and i.variant_id is not distinct from r.variant_id
	where r.status = $1
	group by r.product_id`

const returnedQuantitySQL = `
	select coalesce(sum(i.quantity), 0)::bigint
	from return_requests r
	join orders o on o.id = r.order_id
	join order_items i on i.order_id = o.id and i.product_id = r.product_id and i.variant_id is not distinct from r.variant_id
	where r.status = $1 and r.product_id = $2`

func (s *Store) ProductExists(ctx context.Context, productID string) (bool, error) {
	pid, err := parseID(productID)
	if err != nil {
		return false, store.ErrInvalidID
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `select exists(select 1 from products where id = $1)`, pid).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

func (s *Store) DeliveredQuantity(ctx context.Context, productID string) (int64, error) {
	pid, err := parseID(productID)
	if err != nil {
		return 0, store.ErrInvalidID
	}
	var qty int64
	err = s.pool.QueryRow(ctx, `
		select coalesce(sum(i.quantity), 0)::bigint
		from orders o
		join order_items i on i.order_id = o.id
		where o.order_status = $1 and i.product_id = $2
	`, string(model.OrderDelivered), pid).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("sum delivered quantity: %w", err)
	}
	return qty, nil
}

func (s *Store) ReturnedQuantity(ctx context.Context, productID string) (int64, error) {
	pid, err := parseID(productID)
	if err != nil {
		return 0, store.ErrInvalidID
	}
	var qty int64
	err = s.pool.QueryRow(ctx, returnedQuantitySQL, string(model.ReturnCompleted), pid).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("sum returned quantity: %w", err)
	}
	return qty, nil
}

func (s *Store) SetSoldCount(ctx context.Context, productID string, soldCount int64) error {
	pid, err := parseID(productID)
	if err != nil {
		return store.ErrInvalidID
	}
	if _, err := s.pool.Exec(ctx, `update products set sold_count = $2 where id = $1`, pid, soldCount); err != nil {
		return fmt.Errorf("update sold count: %w", err)
	}
	return nil
}

func (s *Store) sumByProduct(ctx context.Context, query, status string) ([]store.ProductCount, error) {
	rows, err := s.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("aggregate quantities: %w", err)
	}
	defer rows.Close()

	out := make([]store.ProductCount, 0)
	for rows.Next() {
		var c store.ProductCount
		if err := rows.Scan(&c.ProductID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scan quantity: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) DeliveredQuantities(ctx context.Context) ([]store.ProductCount, error) {
	return s.sumByProduct(ctx, deliveredByProductSQL, string(model.OrderDelivered))
}

func (s *Store) ReturnedQuantities(ctx context.Context) ([]store.ProductCount, error) {
	return s.sumByProduct(ctx, returnedByProductSQL, string(model.ReturnCompleted))
}

func (s *Store) ProductsWithSoldCount(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `select id::text from products where sold_count > 0`)
	if err != nil {
		return nil, fmt.Errorf("query sold products: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// BulkSetSoldCounts runs one statement per product outside a transaction so
// a failing row does not roll back the others.
func (s *Store) BulkSetSoldCounts(ctx context.Context, updates []store.SoldCountUpdate) (store.BulkResult, error) {
	result := store.BulkResult{}
	for i, u := range updates {
		pid, err := parseID(u.ProductID)
		if err != nil {
			result.Errors = append(result.Errors, store.BulkError{Index: i, ProductID: u.ProductID, Message: "invalid product id"})
			continue
		}

		var matched, modified int64
		err = s.pool.QueryRow(ctx, `
			with target as (
				select id, sold_count from products where id = $1
			), changed as (
				update products p set sold_count = $2
				from target t
				where p.id = t.id and t.sold_count <> $2
				returning p.id
			)
			select (select count(*) from target), (select count(*) from changed)
		`, pid, u.SoldCount).Scan(&matched, &modified)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Errors = append(result.Errors, store.BulkError{Index: i, ProductID: u.ProductID, Message: err.Error()})
			continue
		}
		result.Matched += matched
		result.Modified += modified
	}
	return result, nil
}
