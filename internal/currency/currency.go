package currency

import (
	"math"
	"strconv"
	"strings"
)

// DefaultCode is used when an event carries a price but no currency.
const DefaultCode = "USD"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"ILS": "₪",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
}

// suffixed currencies are written after the numeral.
var suffixed = map[string]bool{
	"ILS": true,
	"EUR": true,
}

// Symbol returns the display symbol for code. Unknown codes fall back to
// "<CODE> " so the raw code still reads naturally in front of the number.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code + " "
}

// Format renders amount in the given currency, e.g. "$10", "12.50€", "CHF 7".
// Whole amounts are rendered without decimals, anything else with exactly two.
func Format(amount float64, code string) string {
	num := formatAmount(amount)
	sym := Symbol(code)
	if suffixed[code] {
		return num + sym
	}
	return sym + num
}

func formatAmount(amount float64) string {
	if isWhole(amount) {
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func isWhole(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return math.Mod(v, 1) == 0
}

// Normalize upper-cases and trims a currency code from an upstream payload.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
