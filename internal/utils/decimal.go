package utils

import (
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func NumericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	f, err := value.Float64Value()
	if err == nil {
		return f.Float64
	}
	// fallback to string parse
	text, err := value.MarshalJSON()
	if err != nil {
		return 0
	}
	var out float64
	if _, err := fmt.Sscan(string(text), &out); err != nil {
		return 0
	}
	return out
}

func IsFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// Round rounds half away from zero. Non-finite input yields 0.
func Round(value float64, places int32) float64 {
	if !IsFinite(value) {
		return 0
	}
	out, _ := decimal.NewFromFloat(value).Round(places).Float64()
	return out
}

func Round2(value float64) float64 {
	return Round(value, 2)
}

// NonNegative maps negative and non-finite values to 0.
func NonNegative(value float64) float64 {
	if !IsFinite(value) || value < 0 {
		return 0
	}
	return value
}

// ClampInt truncates value toward zero and clamps it into [lo, hi].
func ClampInt(value float64, lo, hi int) int {
	if !IsFinite(value) {
		return lo
	}
	t := int(math.Trunc(value))
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}
