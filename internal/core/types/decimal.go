// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a signed amount in a product's base unit (g, pcs, slice, ...).
// Recipe quantities are fractional, so it shares the decimal representation.
type Quantity = decimal.Decimal

// NullMoney is a Money that may be absent (unknown cost).
type NullMoney = decimal.NullDecimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustQuantity parses a quantity literal, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	return MustMoney(s)
}

// NewQuantity creates a Quantity from an integer count.
func NewQuantity(n int64) Quantity {
	return decimal.NewFromInt(n)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Known wraps a value as a present NullMoney.
func Known(m Money) NullMoney {
	return decimal.NewNullDecimal(m)
}

// Unknown returns an absent NullMoney.
func Unknown() NullMoney {
	return decimal.NullDecimal{}
}

// Round2 rounds half away from zero to cents (SQL ROUND(x, 2) semantics).
func Round2(m Money) Money {
	return m.Round(2)
}

// Round4 rounds half away from zero to 4 places; used by ratio reports.
func Round4(m Money) Money {
	return m.Round(4)
}
