package mongostore

import (
	"time"

	"storefront-services/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type variantDoc struct {
	ID     primitive.ObjectID `bson:"_id"`
	SKU    string             `bson:"sku"`
	Size   string             `bson:"size"`
	Color  string             `bson:"color"`
	Price  float64            `bson:"price"`
	Stock  int                `bson:"stock"`
	Images []string           `bson:"images"`
}

type productDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	Title          string             `bson:"title"`
	Slug           string             `bson:"slug"`
	CategoryID     primitive.ObjectID `bson:"categoryId"`
	CategorySlug   string             `bson:"categorySlug"`
	Images         []string           `bson:"images"`
	BasePrice      float64            `bson:"basePrice"`
	CompareAtPrice *float64           `bson:"compareAtPrice,omitempty"`
	Stock          int                `bson:"stock"`
	Variants       []variantDoc       `bson:"variants"`
	SoldCount      int64              `bson:"soldCount"`
	RatingAvg      float64            `bson:"ratingAvg"`
	RatingCount    int64              `bson:"ratingCount"`
	AverageRating  float64            `bson:"averageRating"`
	ReviewsCount   int64              `bson:"reviewsCount"`
	IsActive       bool               `bson:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

func (d productDoc) toModel() model.Product {
	p := model.Product{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Slug:           d.Slug,
		CategorySlug:   d.CategorySlug,
		Images:         d.Images,
		BasePrice:      d.BasePrice,
		CompareAtPrice: d.CompareAtPrice,
		Stock:          d.Stock,
		SoldCount:      d.SoldCount,
		RatingAvg:      d.RatingAvg,
		RatingCount:    d.RatingCount,
		AverageRating:  d.AverageRating,
		ReviewsCount:   d.ReviewsCount,
		IsActive:       d.IsActive,
		CreatedAt:      d.CreatedAt,
	}
	if !d.CategoryID.IsZero() {
		p.CategoryID = d.CategoryID.Hex()
	}
	for _, v := range d.Variants {
		p.Variants = append(p.Variants, model.Variant{
			ID:     v.ID.Hex(),
			SKU:    v.SKU,
			Size:   v.Size,
			Color:  v.Color,
			Price:  v.Price,
			Stock:  v.Stock,
			Images: v.Images,
		})
	}
	return p
}

type dealDoc struct {
	ID         primitive.ObjectID   `bson:"_id"`
	Name       string               `bson:"name"`
	Type       string               `bson:"type"`
	Value      float64              `bson:"value"`
	Priority   int                  `bson:"priority"`
	StartsAt   time.Time            `bson:"startsAt"`
	ExpiresAt  time.Time            `bson:"expiresAt"`
	ProductIDs []primitive.ObjectID `bson:"productIds"`
	IsActive   bool                 `bson:"isActive"`
}

func (d dealDoc) toModel() model.Deal {
	return model.Deal{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Type:       model.DiscountType(d.Type),
		Value:      d.Value,
		Priority:   d.Priority,
		StartsAt:   d.StartsAt,
		ExpiresAt:  d.ExpiresAt,
		ProductIDs: hexIDs(d.ProductIDs),
		IsActive:   d.IsActive,
	}
}

type couponDoc struct {
	ID                    primitive.ObjectID   `bson:"_id"`
	Code                  string               `bson:"code"`
	Type                  string               `bson:"type"`
	Value                 float64              `bson:"value"`
	MinOrderAmount        float64              `bson:"minOrderAmount"`
	MaxDiscountAmount     *float64             `bson:"maxDiscountAmount,omitempty"`
	StartsAt              *time.Time           `bson:"startsAt,omitempty"`
	ExpiresAt             *time.Time           `bson:"expiresAt,omitempty"`
	UsageLimit            *int64               `bson:"usageLimit,omitempty"`
	UsageLimitPerCustomer *int64               `bson:"usageLimitPerCustomer,omitempty"`
	UsedCount             int64                `bson:"usedCount"`
	AppliesTo             string               `bson:"appliesTo"`
	CategoryIDs           []primitive.ObjectID `bson:"categoryIds"`
	ProductIDs            []primitive.ObjectID `bson:"productIds"`
	IsActive              bool                 `bson:"isActive"`
}

func (d couponDoc) toModel() model.Coupon {
	return model.Coupon{
		ID:                    d.ID.Hex(),
		Code:                  d.Code,
		Type:                  model.DiscountType(d.Type),
		Value:                 d.Value,
		MinOrderAmount:        d.MinOrderAmount,
		MaxDiscountAmount:     d.MaxDiscountAmount,
		StartsAt:              d.StartsAt,
		ExpiresAt:             d.ExpiresAt,
		UsageLimit:            d.UsageLimit,
		UsageLimitPerCustomer: d.UsageLimitPerCustomer,
		UsedCount:             d.UsedCount,
		AppliesTo:             model.AppliesTo(d.AppliesTo),
		CategoryIDs:           hexIDs(d.CategoryIDs),
		ProductIDs:            hexIDs(d.ProductIDs),
		IsActive:              d.IsActive,
	}
}

type promotionDoc struct {
	ID                primitive.ObjectID   `bson:"_id"`
	Name              string               `bson:"name"`
	Type              string               `bson:"type"`
	Value             float64              `bson:"value"`
	MinOrderAmount    float64              `bson:"minOrderAmount"`
	MaxDiscountAmount *float64             `bson:"maxDiscountAmount,omitempty"`
	Priority          int                  `bson:"priority"`
	StartsAt          *time.Time           `bson:"startsAt,omitempty"`
	ExpiresAt         *time.Time           `bson:"expiresAt,omitempty"`
	AppliesTo         string               `bson:"appliesTo"`
	CategoryIDs       []primitive.ObjectID `bson:"categoryIds"`
	ProductIDs        []primitive.ObjectID `bson:"productIds"`
	IsActive          bool                 `bson:"isActive"`
}

func (d promotionDoc) toModel() model.Promotion {
	return model.Promotion{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Type:              model.DiscountType(d.Type),
		Value:             d.Value,
		MinOrderAmount:    d.MinOrderAmount,
		MaxDiscountAmount: d.MaxDiscountAmount,
		Priority:          d.Priority,
		StartsAt:          d.StartsAt,
		ExpiresAt:         d.ExpiresAt,
		AppliesTo:         model.AppliesTo(d.AppliesTo),
		CategoryIDs:       hexIDs(d.CategoryIDs),
		ProductIDs:        hexIDs(d.ProductIDs),
		IsActive:          d.IsActive,
	}
}

type orderItemDoc struct {
	ProductID    primitive.ObjectID `bson:"productId"`
	VariantID    primitive.ObjectID `bson:"variantId"`
	VariantSKU   string             `bson:"variantSku,omitempty"`
	VariantSize  string             `bson:"variantSize,omitempty"`
	VariantColor string             `bson:"variantColor,omitempty"`
	Title        string             `bson:"title"`
	Slug         string             `bson:"slug"`
	Image        string             `bson:"image"`
	Quantity     int                `bson:"quantity"`
	UnitPrice    float64            `bson:"unitPrice"`
}

type addressDoc struct {
	FullName     string `bson:"fullName"`
	Phone        string `bson:"phone"`
	AddressLine1 string `bson:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty"`
	City         string `bson:"city"`
	State        string `bson:"state"`
	PostalCode   string `bson:"postalCode"`
	Country      string `bson:"country"`
}

type orderDoc struct {
	ID                      primitive.ObjectID  `bson:"_id"`
	UserID                  *primitive.ObjectID `bson:"userId,omitempty"`
	GuestEmail              string              `bson:"guestEmail,omitempty"`
	Items                   []orderItemDoc      `bson:"items"`
	ShippingAddress         addressDoc          `bson:"shippingAddress"`
	PaymentMethod           string              `bson:"paymentMethod"`
	Currency                string              `bson:"currency"`
	PkrPerUsd               *float64            `bson:"pkrPerUsd,omitempty"`
	PaymentStatus           string              `bson:"paymentStatus"`
	CouponCode              string              `bson:"couponCode,omitempty"`
	CouponDiscountAmount    float64             `bson:"couponDiscountAmount"`
	PromotionID             *primitive.ObjectID `bson:"promotionId,omitempty"`
	PromotionName           string              `bson:"promotionName,omitempty"`
	PromotionDiscountAmount float64             `bson:"promotionDiscountAmount"`
	DiscountAmount          float64             `bson:"discountAmount"`
	ItemsSubtotal           float64             `bson:"itemsSubtotal"`
	ShippingAmount          float64             `bson:"shippingAmount"`
	TaxAmount               float64             `bson:"taxAmount"`
	TotalAmount             float64             `bson:"totalAmount"`
	OrderStatus             string              `bson:"orderStatus"`
	CreatedAt               time.Time           `bson:"createdAt"`
	UpdatedAt               time.Time           `bson:"updatedAt"`
}

func orderToDoc(o *model.Order) orderDoc {
	d := orderDoc{
		UserID:                  optionalID(o.UserID),
		GuestEmail:              o.GuestEmail,
		PaymentMethod:           o.PaymentMethod,
		Currency:                o.Currency,
		PkrPerUsd:               o.PkrPerUsd,
		PaymentStatus:           string(o.PaymentStatus),
		CouponCode:              o.CouponCode,
		CouponDiscountAmount:    o.CouponDiscountAmount,
		PromotionID:             optionalID(o.PromotionID),
		PromotionName:           o.PromotionName,
		PromotionDiscountAmount: o.PromotionDiscountAmount,
		DiscountAmount:          o.DiscountAmount,
		ItemsSubtotal:           o.ItemsSubtotal,
		ShippingAmount:          o.ShippingAmount,
		TaxAmount:               o.TaxAmount,
		TotalAmount:             o.TotalAmount,
		OrderStatus:             string(o.OrderStatus),
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.CreatedAt,
		ShippingAddress: addressDoc{
			FullName:     o.ShippingAddress.FullName,
			Phone:        o.ShippingAddress.Phone,
			AddressLine1: o.ShippingAddress.AddressLine1,
			AddressLine2: o.ShippingAddress.AddressLine2,
			City:         o.ShippingAddress.City,
			State:        o.ShippingAddress.State,
			PostalCode:   o.ShippingAddress.PostalCode,
			Country:      o.ShippingAddress.Country,
		},
	}
	for _, item := range o.Items {
		productID, _ := parseID(item.ProductID)
		variantID, _ := parseID(item.VariantID)
		d.Items = append(d.Items, orderItemDoc{
			ProductID:    productID,
			VariantID:    variantID,
			VariantSKU:   item.VariantSKU,
			VariantSize:  item.VariantSize,
			VariantColor: item.VariantColor,
			Title:        item.Title,
			Slug:         item.Slug,
			Image:        item.Image,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}
	return d
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil || id.IsZero() {
		return ""
	}
	return id.Hex()
}

func (d orderDoc) toModel() model.Order {
	o := model.Order{
		ID:                      d.ID.Hex(),
		UserID:                  hexOrEmpty(d.UserID),
		GuestEmail:              d.GuestEmail,
		PaymentMethod:           d.PaymentMethod,
		Currency:                d.Currency,
		PkrPerUsd:               d.PkrPerUsd,
		PaymentStatus:           model.PaymentStatus(d.PaymentStatus),
		CouponCode:              d.CouponCode,
		CouponDiscountAmount:    d.CouponDiscountAmount,
		PromotionID:             hexOrEmpty(d.PromotionID),
		PromotionName:           d.PromotionName,
		PromotionDiscountAmount: d.PromotionDiscountAmount,
		DiscountAmount:          d.DiscountAmount,
		ItemsSubtotal:           d.ItemsSubtotal,
		ShippingAmount:          d.ShippingAmount,
		TaxAmount:               d.TaxAmount,
		TotalAmount:             d.TotalAmount,
		OrderStatus:             model.OrderStatus(d.OrderStatus),
		CreatedAt:               d.CreatedAt,
		ShippingAddress: model.ShippingAddress{
			FullName:     d.ShippingAddress.FullName,
			Phone:        d.ShippingAddress.Phone,
			AddressLine1: d.ShippingAddress.AddressLine1,
			AddressLine2: d.ShippingAddress.AddressLine2,
			City:         d.ShippingAddress.City,
			State:        d.ShippingAddress.State,
			PostalCode:   d.ShippingAddress.PostalCode,
			Country:      d.ShippingAddress.Country,
		},
	}
	for _, item := range d.Items {
		o.Items = append(o.Items, model.OrderItem{
			ProductID:    item.ProductID.Hex(),
			VariantID:    item.VariantID.Hex(),
			VariantSKU:   item.VariantSKU,
			VariantSize:  item.VariantSize,
			VariantColor: item.VariantColor,
			Title:        item.Title,
			Slug:         item.Slug,
			Image:        item.Image,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
		})
	}
	return o
}

type returnDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	OrderID   primitive.ObjectID `bson:"orderId"`
	UserID    primitive.ObjectID `bson:"userId"`
	ProductID primitive.ObjectID `bson:"productId"`
	VariantID primitive.ObjectID `bson:"variantId"`
	Reason    string             `bson:"reason"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d returnDoc) toModel() model.ReturnRequest {
	return model.ReturnRequest{
		ID:        d.ID.Hex(),
		OrderID:   d.OrderID.Hex(),
		UserID:    d.UserID.Hex(),
		ProductID: d.ProductID.Hex(),
		VariantID: d.VariantID.Hex(),
		Reason:    d.Reason,
		Status:    model.ReturnStatus(d.Status),
		CreatedAt: d.CreatedAt,
	}
}

type reviewDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	ProductID primitive.ObjectID `bson:"productId"`
	UserID    primitive.ObjectID `bson:"userId"`
	OrderID   primitive.ObjectID `bson:"orderId"`
	Rating    int                `bson:"rating"`
	Comment   string             `bson:"comment,omitempty"`
	IsHidden  bool               `bson:"isHidden"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d reviewDoc) toModel() model.Review {
	return model.Review{
		ID:        d.ID.Hex(),
		ProductID: d.ProductID.Hex(),
		UserID:    d.UserID.Hex(),
		OrderID:   d.OrderID.Hex(),
		Rating:    d.Rating,
		Comment:   d.Comment,
		IsHidden:  d.IsHidden,
		CreatedAt: d.CreatedAt,
	}
}
