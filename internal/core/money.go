// Package core provides the shared entity types, amount handling and the
// error taxonomy used by every table.
//
// This file contains functions for parsing user-entered amounts, summing
// them without float drift and formatting them for display.
package core

import (
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a user-entered decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. Negative values are rejected; zero is
// accepted here and left to per-table validation rules.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}

// Sum adds amounts exactly in decimal and returns the rounded float result.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.InexactFloat64()
}

// FormatAmount renders an amount with the symbol and grouping of its
// currency, falling back to DefaultCurrency when currency is empty.
func FormatAmount(amount float64, currency string) string {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	return money.NewFromFloat(amount, strings.ToUpper(currency)).Display()
}
