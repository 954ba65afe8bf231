package model

import "time"

type Variant struct {
	ID     string   `json:"id"`
	SKU    string   `json:"sku"`
	Size   string   `json:"size"`
	Color  string   `json:"color"`
	Price  float64  `json:"price"`
	Stock  int      `json:"stock"`
	Images []string `json:"images"`
}

// Product carries the denormalized counters maintained by the sales and
// reviews packages. AverageRating and ReviewsCount mirror RatingAvg and
// RatingCount for older readers.
type Product struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	CategoryID     string    `json:"categoryId"`
	CategorySlug   string    `json:"categorySlug,omitempty"`
	Images         []string  `json:"images"`
	BasePrice      float64   `json:"basePrice"`
	CompareAtPrice *float64  `json:"compareAtPrice,omitempty"`
	Stock          int       `json:"stock"`
	Variants       []Variant `json:"variants"`
	SoldCount      int64     `json:"soldCount"`
	RatingAvg      float64   `json:"ratingAvg"`
	RatingCount    int64     `json:"ratingCount"`
	AverageRating  float64   `json:"averageRating"`
	ReviewsCount   int64     `json:"reviewsCount"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}
