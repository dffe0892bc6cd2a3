package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a decimal amount string into integer minor units
// (amount * 100, rounded). The conversion is exact for 2-decimal inputs.
func ToMinorUnits(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", amount)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
