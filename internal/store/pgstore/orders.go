package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now().UTC()
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	id := uuid.NewString()

	err = s.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			insert into orders (
				id, user_id, guest_email, shipping_address, payment_method, currency, pkr_per_usd,
				payment_status, coupon_code, coupon_discount_amount, promotion_id, promotion_name,
				promotion_discount_amount, discount_amount, items_subtotal, shipping_amount,
				tax_amount, total_amount, order_status, created_at, updated_at
			) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20)
		`,
			id, nullableID(order.UserID), order.GuestEmail, address, order.PaymentMethod, order.Currency, order.PkrPerUsd,
			string(order.PaymentStatus), order.CouponCode, order.CouponDiscountAmount, nullableID(order.PromotionID), order.PromotionName,
			order.PromotionDiscountAmount, order.DiscountAmount, order.ItemsSubtotal, order.ShippingAmount,
			order.TaxAmount, order.TotalAmount, string(order.OrderStatus), order.CreatedAt,
		)
		if err != nil {
			return err
		}

		for i, item := range order.Items {
			args, err := orderItemArgs(id, i, item)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, insertOrderItemSQL, args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert order: %w", mapErr(err))
	}
	order.ID = id
	return nil
}

const insertOrderItemSQL = `
	insert into order_items (
		order_id, position, product_id, variant_id, variant_sku, variant_size, variant_color,
		title, slug, image, quantity, unit_price
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

// orderItemArgs binds one line for insertOrderItemSQL. A line without a
// variant binds a null variant_id.
func orderItemArgs(orderID string, position int, item model.OrderItem) ([]any, error) {
	productID, err := parseID(item.ProductID)
	if err != nil {
		return nil, err
	}
	variantID, err := optionalID(item.VariantID)
	if err != nil {
		return nil, err
	}
	return []any{
		orderID, position, productID, variantID, item.VariantSKU, item.VariantSize, item.VariantColor,
		item.Title, item.Slug, item.Image, item.Quantity, item.UnitPrice,
	}, nil
}

func loadOrder(ctx context.Context, q queryer, id string, lock bool) (model.Order, error) {
	query := `
		select id::text, coalesce(user_id::text, ''), guest_email, shipping_address, payment_method, currency,
		       pkr_per_usd, payment_status, coupon_code, coupon_discount_amount,
		       coalesce(promotion_id::text, ''), promotion_name, promotion_discount_amount, discount_amount,
		       items_subtotal, shipping_amount, tax_amount, total_amount, order_status, created_at
		from orders where id = $1`
	if lock {
		query += ` for update`
	}

	var (
		o                 model.Order
		address           []byte
		paymentStatus     string
		orderStatus       string
		couponDiscount    pgtype.Numeric
		promotionDiscount pgtype.Numeric
		discount          pgtype.Numeric
		subtotal          pgtype.Numeric
		shippingAmount    pgtype.Numeric
		tax               pgtype.Numeric
		total             pgtype.Numeric
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.GuestEmail, &address, &o.PaymentMethod, &o.Currency,
		&o.PkrPerUsd, &paymentStatus, &o.CouponCode, &couponDiscount,
		&o.PromotionID, &o.PromotionName, &promotionDiscount, &discount,
		&subtotal, &shippingAmount, &tax, &total, &orderStatus, &o.CreatedAt,
	)
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return model.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	o.OrderStatus = model.OrderStatus(orderStatus)
	o.CouponDiscountAmount = utils.NumericToFloat64(couponDiscount)
	o.PromotionDiscountAmount = utils.NumericToFloat64(promotionDiscount)
	o.DiscountAmount = utils.NumericToFloat64(discount)
	o.ItemsSubtotal = utils.NumericToFloat64(subtotal)
	o.ShippingAmount = utils.NumericToFloat64(shippingAmount)
	o.TaxAmount = utils.NumericToFloat64(tax)
	o.TotalAmount = utils.NumericToFloat64(total)

	rows, err := q.Query(ctx, `
		select product_id::text, coalesce(variant_id::text, ''), variant_sku, variant_size, variant_color,
		       title, slug, image, quantity, unit_price
		from order_items where order_id = $1 order by position
	`, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      model.OrderItem
			unitPrice pgtype.Numeric
		)
		if err := rows.Scan(
			&item.ProductID, &item.VariantID, &item.VariantSKU, &item.VariantSize, &item.VariantColor,
			&item.Title, &item.Slug, &item.Image, &item.Quantity, &unitPrice,
		); err != nil {
			return model.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		item.UnitPrice = utils.NumericToFloat64(unitPrice)
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, store.ErrNotFound
	}
	return loadOrder(ctx, s.pool, oid, false)
}

func (s *Store) SetOrderStatus(ctx context.Context, id string, status model.OrderStatus) (model.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Order{}, store.ErrNotFound
	}

	var before model.Order
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		before, err = loadOrder(ctx, tx, oid, true)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `update orders set order_status = $2, updated_at = $3 where id = $1`, oid, string(status), s.now().UTC())
		return err
	})
	if err != nil {
		return model.Order{}, mapErr(err)
	}
	return before, nil
}

const returnColumns = `id::text, order_id::text, user_id::text, product_id::text, coalesce(variant_id::text, ''), reason, status, created_at`

func scanReturn(row pgx.Row) (model.ReturnRequest, error) {
	var (
		r      model.ReturnRequest
		status string
	)
	if err := row.Scan(&r.ID, &r.OrderID, &r.UserID, &r.ProductID, &r.VariantID, &r.Reason, &status, &r.CreatedAt); err != nil {
		return model.ReturnRequest{}, mapErr(err)
	}
	r.Status = model.ReturnStatus(status)
	return r, nil
}

func (s *Store) GetReturn(ctx context.Context, id string) (model.ReturnRequest, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.ReturnRequest{}, store.ErrNotFound
	}
	return scanReturn(s.pool.QueryRow(ctx, `select `+returnColumns+` from return_requests where id = $1`, rid))
}

func (s *Store) SetReturnStatus(ctx context.Context, id string, status model.ReturnStatus) (model.ReturnRequest, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.ReturnRequest{}, store.ErrNotFound
	}

	var before model.ReturnRequest
	err = s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		before, err = scanReturn(tx.QueryRow(ctx, `select `+returnColumns+` from return_requests where id = $1 for update`, rid))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `update return_requests set status = $2, updated_at = $3 where id = $1`, rid, string(status), s.now().UTC())
		return err
	})
	if err != nil {
		return model.ReturnRequest{}, mapErr(err)
	}
	return before, nil
}
