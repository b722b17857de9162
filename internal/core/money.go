// Package core holds the ledger domain: entities, money handling and the
// recurring-schedule calendar arithmetic.
//
// This file contains amount parsing and validation. All monetary values are
// exact decimals; floating point never enters balance or budget arithmetic.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// MinAmount and MaxAmount bound every transaction, transfer and budget
	// amount accepted by the ledger.
	MinAmount = decimal.NewFromInt(1)
	MaxAmount = decimal.RequireFromString("99999999.99")
)

// ParseAmount converts a decimal string into a validated amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to two decimal places. The result must lie within
// [MinAmount, MaxAmount].
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (rounds up)
//	ParseAmount("0.50")   -> error (below minimum)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks an already-parsed amount against the ledger bounds.
func ValidateAmount(d decimal.Decimal) error {
	if d.LessThan(MinAmount) || d.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		return ErrInvalidAmount
	}
	return nil
}
