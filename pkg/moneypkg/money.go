// Package moneypkg provides common money related functionality for apps.
package moneypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places a balance is kept with.
const Scale = 2

// maxIntDigits is the number of integer digits a NUMERIC(20, 2) balance holds.
const maxIntDigits = 20 - Scale

// Bounds checked before any comparison, so that a huge exponent or coefficient
// is rejected without being rescaled.
const (
	minExponent        = -maxIntDigits
	maxCoefficientBits = 128
	maxAmountLen       = 64
)

var (
	// MinAmount is the smallest amount that can be moved.
	MinAmount = decimal.New(1, -Scale)
	// MaxAmount is the largest amount and the largest balance an account can hold.
	MaxAmount = decimal.New(1, maxIntDigits).Sub(MinAmount)
)

// InRange reports whether d lies within [-MaxAmount, MaxAmount].
func InRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp >= maxIntDigits || exp < minExponent {
		return false
	}

	if d.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}

	return !d.Abs().GreaterThan(MaxAmount)
}

// IsValidAmount returns true if the amount is between MinAmount and MaxAmount
// and has no more than Scale decimal places.
func IsValidAmount(amount decimal.Decimal) bool {
	if !InRange(amount) || amount.LessThan(MinAmount) {
		return false
	}

	return amount.Equal(amount.Truncate(Scale))
}

// ParseAmount parses s and reports whether it is a valid amount.
func ParseAmount(s string) (decimal.Decimal, bool) {
	if len(s) > maxAmountLen {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}

	return amount, IsValidAmount(amount)
}

// ValidMoney validates whether the field holds a valid amount.
//
// It is registered under the "money" tag and works on string kinds, json.Number included.
var ValidMoney validator.Func = func(fl validator.FieldLevel) bool {
	_, ok := ParseAmount(fl.Field().String())
	return ok
}
