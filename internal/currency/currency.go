package currency

import (
	"strings"

	"storefront-services/internal/utils"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Code string

const (
	PKR Code = "PKR"
	USD Code = "USD"

	// Canonical is the currency every stored amount is expressed in.
	Canonical = PKR
)

// Unavailable is rendered instead of a foreign amount when no usable rate
// exists. Callers must never show 0 in its place.
const Unavailable = "$—"

func ParseCode(value string) Code {
	if strings.EqualFold(strings.TrimSpace(value), string(USD)) {
		return USD
	}
	return PKR
}

func validRate(rate float64) bool {
	return utils.IsFinite(rate) && rate > 0
}

// Convert turns a canonical amount into target. rate is PKR per 1 USD and is
// only consulted for USD. ok is false when the rate is missing (0), negative
// or non-finite.
func Convert(amount float64, target Code, rate float64) (value float64, ok bool) {
	if !utils.IsFinite(amount) {
		amount = 0
	}
	if target != USD {
		return amount, true
	}
	if !validRate(rate) {
		return 0, false
	}
	return amount / rate, true
}

var printer = message.NewPrinter(language.English)

// Format converts and renders an amount: PKR with no decimals, USD with two.
func Format(amount float64, target Code, rate float64) string {
	value, ok := Convert(amount, target, rate)
	if target == USD {
		if !ok {
			return Unavailable
		}
		return formatSigned("$", utils.Round(value, 2), 2)
	}
	return formatSigned("Rs ", utils.Round(value, 0), 0)
}

// Decimals is the display precision for a currency.
func Decimals(c Code) int32 {
	if c == USD {
		return 2
	}
	return 0
}

func formatSigned(symbol string, value float64, decimals int) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	if decimals == 0 {
		return sign + symbol + printer.Sprintf("%.0f", value)
	}
	return sign + symbol + printer.Sprintf("%.2f", value)
}
