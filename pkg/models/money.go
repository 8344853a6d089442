package models

import (
	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents).
type Money int64

// MoneyFromDecimal converts a major-unit amount to cents, rounding half up to two fraction digits.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Round(2).Shift(2).IntPart())
}

// Decimal returns the amount in major units with two fraction digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount in major units, e.g. "10.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
