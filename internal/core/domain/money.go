package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places a stored amount may carry.
const MoneyPlaces = 2

// IsMoney reports whether d fits in whole cents.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}

// ValidAmount reports whether d can be recorded as an expense amount.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && IsMoney(d)
}
