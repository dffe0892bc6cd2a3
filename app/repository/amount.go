package repository

import "github.com/shopspring/decimal"

// sameAmount compares two decimal strings numerically so "10" and "10.00"
// are treated as equal.
func sameAmount(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}
