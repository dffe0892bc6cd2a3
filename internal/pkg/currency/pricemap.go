package currency

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceMap holds one 2-decimal amount per supported currency.
type PriceMap map[Code]string

// GeneratePriceMap expands baseAmount in base into every supported currency.
// The base entry is baseAmount itself; other entries use the override when
// one is given and are otherwise converted through Reference with Margin.
// Overrides are expected to be normalized already (see NormalizeAmount).
func GeneratePriceMap(baseAmount float64, base Code, overrides map[Code]string) PriceMap {
	base = Normalize(string(base))
	out := make(PriceMap, len(Supported))
	for _, c := range Supported {
		if c == base {
			out[c] = FormatFixed(baseAmount)
			continue
		}
		if v, ok := overrides[c]; ok && strings.TrimSpace(v) != "" {
			out[c] = v
			continue
		}
		out[c] = FormatFixed(Convert(baseAmount, base, c) * Margin)
	}
	return out
}

// Convert converts amount from one currency to another through Reference.
// No margin and no rounding are applied.
func Convert(amount float64, from, to Code) float64 {
	from = Normalize(string(from))
	to = Normalize(string(to))
	if from == to {
		return amount
	}
	inReference := amount / rates[from]
	return inReference * rates[to]
}

// FormatFixed renders amount with exactly two decimals. Non-finite values
// render as "".
func FormatFixed(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ""
	}
	return decimal.NewFromFloat(amount).Round(2).StringFixed(2)
}

// ParseAmount parses a decimal string. ok is false for unparsable or
// non-finite input.
func ParseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizeAmount validates a decimal string and renders it with two decimals,
// e.g. "42000" becomes "42000.00".
func NormalizeAmount(s string) (string, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return d.Round(2).StringFixed(2), true
}
