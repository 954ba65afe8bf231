package utils

import (
	"math"
	"strconv"
)

// FormatCompact renders counts the way the storefront shows social proof:
// 950 -> "950", 1250 -> "1.3k", 2000000 -> "2M".
func FormatCompact(n float64) string {
	if !IsFinite(n) {
		return "0"
	}

	abs := math.Abs(n)
	switch {
	case abs < 1_000:
		return strconv.FormatInt(int64(math.Trunc(n)), 10)
	case abs < 1_000_000:
		return compactWithSuffix(n/1_000, "k")
	case abs < 1_000_000_000:
		return compactWithSuffix(n/1_000_000, "M")
	default:
		return compactWithSuffix(n/1_000_000_000, "B")
	}
}

func compactWithSuffix(v float64, suffix string) string {
	rounded := Round(v, 1)
	if rounded == math.Trunc(rounded) {
		return strconv.FormatInt(int64(rounded), 10) + suffix
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64) + suffix
}
