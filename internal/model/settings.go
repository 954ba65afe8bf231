package model

type ShippingEta struct {
	MinDays int `json:"minDays"`
	MaxDays int `json:"maxDays"`
}

type CityRule struct {
	City              string   `json:"city"`
	Fee               float64  `json:"fee"`
	FreeAboveSubtotal *float64 `json:"freeAboveSubtotal"`
	EtaMinDays        *int     `json:"etaMinDays"`
	EtaMaxDays        *int     `json:"etaMaxDays"`
}

type ShippingSettings struct {
	DefaultFee        float64     `json:"defaultFee"`
	FreeAboveSubtotal *float64    `json:"freeAboveSubtotal"`
	EtaDefault        ShippingEta `json:"etaDefault"`
	CityRules         []CityRule  `json:"cityRules"`
}

type InventorySettings struct {
	LowStockThreshold int `json:"lowStockThreshold"`
}

type StorefrontSettings struct {
	Inventory InventorySettings `json:"inventory"`
	Shipping  ShippingSettings  `json:"shipping"`
}

// LocalizedText maps a language code to a value.
type LocalizedText map[string]string
