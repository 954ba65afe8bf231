package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront-services/internal/model"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `
	p.id::text, p.title, p.slug, coalesce(p.category_id::text, ''), p.category_slug, p.images,
	p.base_price, p.compare_at_price, p.stock, p.sold_count,
	p.rating_avg, p.rating_count, p.average_rating, p.reviews_count, p.is_active, p.created_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p         model.Product
		basePrice pgtype.Numeric
		compareAt pgtype.Numeric
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.CategoryID, &p.CategorySlug, &p.Images,
		&basePrice, &compareAt, &p.Stock, &p.SoldCount,
		&p.RatingAvg, &p.RatingCount, &p.AverageRating, &p.ReviewsCount, &p.IsActive, &p.CreatedAt,
	); err != nil {
		return model.Product{}, err
	}
	p.BasePrice = utils.NumericToFloat64(basePrice)
	p.CompareAtPrice = optionalNumeric(compareAt)
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (model.Product, error) {
	pid, err := parseID(id)
	if err != nil {
		return model.Product{}, store.ErrNotFound
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `select `+productColumns+` from products p where p.id = $1`, pid))
	if err != nil {
		return model.Product{}, mapErr(err)
	}

	products := []model.Product{p}
	if err := s.attachVariants(ctx, products); err != nil {
		return model.Product{}, err
	}
	return products[0], nil
}

func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.IDs != nil {
		args = append(args, parseIDs(filter.IDs))
		where = append(where, fmt.Sprintf("p.id = any($%d::uuid[])", len(args)))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		where = append(where, fmt.Sprintf("p.category_slug = $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "p.is_active")
	}

	query := `select ` + productColumns + ` from products p`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += ` order by p.sold_count desc, p.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" limit $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) attachVariants(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	index := make(map[string]int, len(products))
	ids := make([]string, 0, len(products))
	for i, p := range products {
		index[p.ID] = i
		ids = append(ids, p.ID)
	}

	rows, err := s.pool.Query(ctx, `
		select id::text, product_id::text, sku, size, color, price, stock, images
		from product_variants
		where product_id = any($1::uuid[])
		order by product_id, position
	`, ids)
	if err != nil {
		return fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v         model.Variant
			productID string
			price     pgtype.Numeric
		)
		if err := rows.Scan(&v.ID, &productID, &v.SKU, &v.Size, &v.Color, &price, &v.Stock, &v.Images); err != nil {
			return fmt.Errorf("scan variant: %w", err)
		}
		v.Price = utils.NumericToFloat64(price)
		if i, ok := index[productID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func (s *Store) ActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error) {
	rows, err := s.pool.Query(ctx, `
		select d.id::text, d.name, d.type, d.value, d.priority, d.starts_at, d.expires_at, d.is_active,
		       coalesce(array_agg(dp.product_id::text) filter (where dp.product_id is not null), '{}')
		from deals d
		left join deal_products dp on dp.deal_id = d.id
		where d.is_active and d.starts_at <= $1 and d.expires_at >= $1
		group by d.id
		order by d.priority desc, d.expires_at, d.id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	deals := make([]model.Deal, 0)
	for rows.Next() {
		var (
			d     model.Deal
			typ   string
			value pgtype.Numeric
		)
		if err := rows.Scan(&d.ID, &d.Name, &typ, &value, &d.Priority, &d.StartsAt, &d.ExpiresAt, &d.IsActive, &d.ProductIDs); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		d.Type = model.DiscountType(typ)
		d.Value = utils.NumericToFloat64(value)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (s *Store) StorefrontSettings(ctx context.Context) (map[string]any, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `select doc from site_settings where key = $1`, settingsKey).Scan(&raw)
	if err != nil {
		if mapErr(err) == store.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("query settings: %w", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return doc, nil
}
