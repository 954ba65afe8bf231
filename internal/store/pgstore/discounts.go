package pgstore

import (
	"context"
	"fmt"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) FindCouponByCode(ctx context.Context, code string) (model.Coupon, error) {
	var (
		c           model.Coupon
		typ         string
		appliesTo   string
		value       pgtype.Numeric
		minOrder    pgtype.Numeric
		maxDiscount pgtype.Numeric
		startsAt    pgtype.Timestamptz
		expiresAt   pgtype.Timestamptz
		usageLimit  pgtype.Int8
		perCustomer pgtype.Int8
	)
	err := s.pool.QueryRow(ctx, `
		select id::text, code, type, value, min_order_amount, max_discount_amount, starts_at, expires_at,
		       usage_limit, usage_limit_per_customer, used_count, applies_to,
		       category_ids::text[], product_ids::text[], is_active
		from coupons
		where code = $1
	`, code).Scan(
		&c.ID, &c.Code, &typ, &value, &minOrder, &maxDiscount, &startsAt, &expiresAt,
		&usageLimit, &perCustomer, &c.UsedCount, &appliesTo,
		&c.CategoryIDs, &c.ProductIDs, &c.IsActive,
	)
	if err != nil {
		return model.Coupon{}, mapErr(err)
	}

	c.Type = model.DiscountType(typ)
	c.AppliesTo = model.AppliesTo(appliesTo)
	c.Value = utils.NumericToFloat64(value)
	c.MinOrderAmount = utils.NumericToFloat64(minOrder)
	c.MaxDiscountAmount = optionalNumeric(maxDiscount)
	c.StartsAt = optionalTime(startsAt)
	c.ExpiresAt = optionalTime(expiresAt)
	c.UsageLimit = optionalInt8(usageLimit)
	c.UsageLimitPerCustomer = optionalInt8(perCustomer)
	return c, nil
}

func (s *Store) ActivePromotions(ctx context.Context, now time.Time) ([]model.Promotion, error) {
	rows, err := s.pool.Query(ctx, `
		select id::text, name, type, value, min_order_amount, max_discount_amount, priority,
		       starts_at, expires_at, applies_to, category_ids::text[], product_ids::text[], is_active
		from promotions
		where is_active
		  and (starts_at is null or starts_at <= $1)
		  and (expires_at is null or expires_at >= $1)
		order by priority desc, id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	promotions := make([]model.Promotion, 0)
	for rows.Next() {
		var (
			p           model.Promotion
			typ         string
			appliesTo   string
			value       pgtype.Numeric
			minOrder    pgtype.Numeric
			maxDiscount pgtype.Numeric
			startsAt    pgtype.Timestamptz
			expiresAt   pgtype.Timestamptz
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &typ, &value, &minOrder, &maxDiscount, &p.Priority,
			&startsAt, &expiresAt, &appliesTo, &p.CategoryIDs, &p.ProductIDs, &p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		p.Type = model.DiscountType(typ)
		p.AppliesTo = model.AppliesTo(appliesTo)
		p.Value = utils.NumericToFloat64(value)
		p.MinOrderAmount = utils.NumericToFloat64(minOrder)
		p.MaxDiscountAmount = optionalNumeric(maxDiscount)
		p.StartsAt = optionalTime(startsAt)
		p.ExpiresAt = optionalTime(expiresAt)
		promotions = append(promotions, p)
	}
	return promotions, rows.Err()
}

func (s *Store) CountCustomerCouponUses(ctx context.Context, code, userID string) (int64, error) {
	uid, err := parseID(userID)
	if err != nil {
		return 0, nil
	}
	var n int64
	err = s.pool.QueryRow(ctx, `
		select count(*) from orders
		where coupon_code = $1 and user_id = $2 and order_status <> $3
	`, code, uid, string(model.OrderCancelled)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon uses: %w", err)
	}
	return n, nil
}

func (s *Store) IncrementCouponUsage(ctx context.Context, couponID string) error {
	id, err := parseID(couponID)
	if err != nil {
		return store.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `update coupons set used_count = used_count + 1 where id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
