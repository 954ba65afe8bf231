package shipping

import (
	"fmt"
	"strings"

	"storefront-services/internal/model"
	"storefront-services/internal/utils"
)

type Quote struct {
	Amount            float64  `json:"amount"`
	MatchedCity       *string  `json:"matchedCity"`
	FreeAboveSubtotal *float64 `json:"freeAboveSubtotal"`
}

type Eta struct {
	MinDays int    `json:"minDays"`
	MaxDays int    `json:"maxDays"`
	Text    string `json:"text"`
}

// CityKey trims, collapses inner whitespace and lower-cases a city name.
func CityKey(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

func MatchCityRule(settings model.ShippingSettings, city string) (model.CityRule, bool) {
	key := CityKey(city)
	if key == "" {
		return model.CityRule{}, false
	}
	for _, rule := range settings.CityRules {
		if CityKey(rule.City) == key {
			return rule, true
		}
	}
	return model.CityRule{}, false
}

// ComputeShipping returns the delivery fee for subtotal. Checkout passes
// the subtotal after discounts.
func ComputeShipping(subtotal float64, city string, settings model.ShippingSettings) Quote {
	subtotal = utils.NonNegative(subtotal)
	rule, matched := MatchCityRule(settings, city)

	quote := Quote{FreeAboveSubtotal: settings.FreeAboveSubtotal}
	fee := settings.DefaultFee
	if matched {
		name := rule.City
		quote.MatchedCity = &name
		fee = rule.Fee
		if rule.FreeAboveSubtotal != nil {
			quote.FreeAboveSubtotal = rule.FreeAboveSubtotal
		}
	}

	if free := quote.FreeAboveSubtotal; free != nil && utils.IsFinite(*free) && *free >= 0 && subtotal >= *free {
		quote.Amount = 0
		return quote
	}
	quote.Amount = utils.NonNegative(fee)
	return quote
}

func ComputeEta(city string, settings model.ShippingSettings) Eta {
	minDays := settings.EtaDefault.MinDays
	maxDays := settings.EtaDefault.MaxDays
	if rule, ok := MatchCityRule(settings, city); ok {
		if rule.EtaMinDays != nil {
			minDays = *rule.EtaMinDays
		}
		if rule.EtaMaxDays != nil {
			maxDays = *rule.EtaMaxDays
		}
	}

	minDays = utils.ClampInt(float64(minDays), 0, MaxEtaDays)
	maxDays = utils.ClampInt(float64(maxDays), 0, MaxEtaDays)
	if maxDays < minDays {
		minDays, maxDays = maxDays, minDays
	}
	return Eta{MinDays: minDays, MaxDays: maxDays, Text: EtaText(minDays, maxDays)}
}

// EtaText is empty when both bounds are zero.
func EtaText(minDays, maxDays int) string {
	lo := utils.ClampInt(float64(minDays), 0, MaxEtaDays)
	hi := utils.ClampInt(float64(maxDays), 0, MaxEtaDays)
	if lo <= 0 && hi <= 0 {
		return ""
	}
	if lo == hi {
		if lo == 1 {
			return "Delivery in 1 business day"
		}
		return fmt.Sprintf("Delivery in %d business days", lo)
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("Delivery in %d–%d business days", lo, hi)
}
