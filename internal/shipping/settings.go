package shipping

import (
	"encoding/json"
	"strconv"
	"strings"

	"storefront-services/internal/model"
	"storefront-services/internal/utils"
)

const (
	MaxEtaDays               = 60
	DefaultEtaMinDays        = 3
	DefaultEtaMaxDays        = 5
	DefaultLowStockThreshold = 5
	MaxLowStockThreshold     = 1000
)

// NormalizeStorefront turns a loosely typed settings document into
// StorefrontSettings. Missing or malformed values fall back to defaults.
func NormalizeStorefront(raw any) model.StorefrontSettings {
	root := utils.AsRecord(raw)
	inventory := utils.AsRecord(root["inventory"])

	return model.StorefrontSettings{
		Inventory: model.InventorySettings{
			LowStockThreshold: utils.ClampInt(readNumber(inventory["lowStockThreshold"], DefaultLowStockThreshold), 0, MaxLowStockThreshold),
		},
		Shipping: Normalize(root["shipping"]),
	}
}

// Normalize parses the shipping section of the settings document.
func Normalize(raw any) model.ShippingSettings {
	root := utils.AsRecord(raw)
	eta := utils.AsRecord(root["etaDefault"])

	settings := model.ShippingSettings{
		DefaultFee:        utils.NonNegative(readNumber(root["defaultFee"], 0)),
		FreeAboveSubtotal: optionalAmount(root["freeAboveSubtotal"]),
		EtaDefault: model.ShippingEta{
			MinDays: utils.ClampInt(readNumber(eta["minDays"], DefaultEtaMinDays), 0, MaxEtaDays),
			MaxDays: utils.ClampInt(readNumber(eta["maxDays"], DefaultEtaMaxDays), 0, MaxEtaDays),
		},
		CityRules: []model.CityRule{},
	}

	for _, item := range utils.AsList(root["cityRules"]) {
		r, ok := utils.RecordOf(item)
		if !ok {
			continue
		}
		city := strings.TrimSpace(asString(r["city"]))
		if city == "" {
			continue
		}
		settings.CityRules = append(settings.CityRules, model.CityRule{
			City:              city,
			Fee:               utils.NonNegative(readNumber(r["fee"], 0)),
			FreeAboveSubtotal: optionalAmount(r["freeAboveSubtotal"]),
			EtaMinDays:        optionalDays(r["etaMinDays"]),
			EtaMaxDays:        optionalDays(r["etaMaxDays"]),
		})
	}
	return settings
}

// numberOf reports the value only when it is stored as a number.
func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// readNumber also accepts numeric strings and booleans.
func readNumber(v any, fallback float64) float64 {
	if n, ok := numberOf(v); ok {
		if utils.IsFinite(n) {
			return n
		}
		return fallback
	}
	switch x := v.(type) {
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return 0
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || !utils.IsFinite(f) {
			return fallback
		}
		return f
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return fallback
}

func optionalAmount(v any) *float64 {
	n, ok := numberOf(v)
	if !ok || !utils.IsFinite(n) || n < 0 {
		return nil
	}
	return &n
}

func optionalDays(v any) *int {
	n, ok := numberOf(v)
	if !ok || !utils.IsFinite(n) || n < 0 {
		return nil
	}
	days := utils.ClampInt(n, 0, MaxEtaDays)
	return &days
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	if n, ok := numberOf(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
