package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront-services/internal/currency"
	"storefront-services/internal/model"
	"storefront-services/internal/pricing"
	"storefront-services/internal/shipping"
	"storefront-services/internal/store"
	"storefront-services/internal/utils"
	"storefront-services/pkg/response"
)

type productDisplay struct {
	Price          string  `json:"price"`
	BasePrice      string  `json:"basePrice"`
	CompareAtPrice *string `json:"compareAtPrice,omitempty"`
	DealLabel      string  `json:"dealLabel,omitempty"`
}

type productDetail struct {
	ID             string                  `json:"id"`
	Title          string                  `json:"title"`
	Slug           string                  `json:"slug"`
	CategoryID     string                  `json:"categoryId"`
	CategorySlug   string                  `json:"categorySlug,omitempty"`
	Images         []string                `json:"images"`
	Stock          int                     `json:"stock"`
	LowStock       bool                    `json:"lowStock"`
	Variants       []model.Variant         `json:"variants"`
	Pricing        pricing.ProductPrice    `json:"pricing"`
	SoldCount      int64                   `json:"soldCount"`
	SoldCountLabel string                  `json:"soldCountLabel"`
	RatingAvg      float64                 `json:"ratingAvg"`
	RatingCount    int64                   `json:"ratingCount"`
	AverageRating  float64                 `json:"averageRating"`
	ReviewsCount   int64                   `json:"reviewsCount"`
	Currency       currency.Code           `json:"currency"`
	PkrPerUsd      *float64                `json:"pkrPerUsd"`
	Display        productDisplay          `json:"display"`
	Inventory      model.InventorySettings `json:"inventory"`
}

func totalStock(p model.Product) int {
	if len(p.Variants) == 0 {
		return p.Stock
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

func displayPrices(price pricing.ProductPrice, code currency.Code, rate float64) productDisplay {
	out := productDisplay{
		Price:     currency.Format(price.Price, code, rate),
		BasePrice: currency.Format(price.BasePrice, code, rate),
	}
	if price.CompareAtPrice != nil {
		s := currency.Format(*price.CompareAtPrice, code, rate)
		out.CompareAtPrice = &s
	}
	if price.Deal != nil {
		out.DealLabel = price.Deal.Label
	}
	return out
}

func (h *Handler) PublicProductDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := readPathString(r, "id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Product id is required")
		return
	}

	p, err := h.Store.GetProduct(ctx, id)
	if err != nil || !p.IsActive {
		if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			h.Logger.Error("product load failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load product")
			return
		}
		response.Error(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
		return
	}

	now := h.now()
	deals, err := h.Store.ActiveDeals(ctx, now)
	if err != nil {
		h.Logger.Error("deals load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load product")
		return
	}
	raw, err := h.Store.StorefrontSettings(ctx)
	if err != nil {
		h.Logger.Error("storefront settings load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load product")
		return
	}
	inventory := shipping.NormalizeStorefront(raw).Inventory

	code := currency.ParseCode(r.URL.Query().Get("currency"))
	rate := h.pkrPerUsd()
	price := pricing.ForProduct(p, deals, now)

	stock := totalStock(p)
	detail := productDetail{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		CategoryID:     p.CategoryID,
		CategorySlug:   p.CategorySlug,
		Images:         p.Images,
		Stock:          stock,
		LowStock:       stock > 0 && stock <= inventory.LowStockThreshold,
		Variants:       p.Variants,
		Pricing:        price,
		SoldCount:      p.SoldCount,
		SoldCountLabel: utils.FormatCompact(float64(p.SoldCount)),
		RatingAvg:      p.RatingAvg,
		RatingCount:    p.RatingCount,
		AverageRating:  p.RatingAvg,
		ReviewsCount:   p.RatingCount,
		Currency:       code,
		Display:        displayPrices(price, code, rate),
		Inventory:      inventory,
	}
	if detail.Images == nil {
		detail.Images = []string{}
	}
	if detail.Variants == nil {
		detail.Variants = []model.Variant{}
	}
	if code == currency.USD && rate > 0 {
		detail.PkrPerUsd = &rate
	}

	response.Success(w, detail)
}

type dealProductItem struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Slug           string            `json:"slug"`
	Images         []string          `json:"images"`
	BasePrice      float64           `json:"basePrice"`
	CompareAtPrice *float64          `json:"compareAtPrice,omitempty"`
	Price          float64           `json:"price"`
	RatingAvg      float64           `json:"ratingAvg"`
	RatingCount    int64             `json:"ratingCount"`
	SoldCount      int64             `json:"soldCount"`
	SoldCountLabel string            `json:"soldCountLabel"`
	Category       string            `json:"category"`
	Deal           *pricing.DealInfo `json:"deal"`
}

// PublicSuperDeals lists products on a running deal, strongest deal first.
func (h *Handler) PublicSuperDeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := clampInt(parseQueryInt(r, "limit", 6), 1, 24)
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	now := h.now()
	deals, err := h.Store.ActiveDeals(ctx, now)
	if err != nil {
		h.Logger.Error("deals load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deals")
		return
	}

	items := []dealProductItem{}
	ids := pricing.DealProductIDs(deals)
	if len(ids) == 0 {
		response.Success(w, map[string]any{"items": items, "generatedAt": now.UTC().Format(time.RFC3339)})
		return
	}

	products, err := h.Store.ListProducts(ctx, store.ProductFilter{IDs: ids, CategorySlug: category, ActiveOnly: true})
	if err != nil {
		h.Logger.Error("deal products load failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load deals")
		return
	}

	for _, dp := range pricing.SuperDeals(products, deals, now, limit) {
		p := dp.Product
		images := p.Images
		if images == nil {
			images = []string{}
		}
		items = append(items, dealProductItem{
			ID:             p.ID,
			Title:          p.Title,
			Slug:           p.Slug,
			Images:         images,
			BasePrice:      p.BasePrice,
			CompareAtPrice: p.CompareAtPrice,
			Price:          dp.Price,
			RatingAvg:      p.RatingAvg,
			RatingCount:    p.RatingCount,
			SoldCount:      p.SoldCount,
			SoldCountLabel: utils.FormatCompact(float64(p.SoldCount)),
			Category:       p.CategorySlug,
			Deal:           pricing.NewDealInfo(dp.Deal),
		})
	}

	response.Success(w, map[string]any{"items": items, "generatedAt": now.UTC().Format(time.RFC3339)})
}
