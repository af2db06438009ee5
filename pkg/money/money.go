// Package money holds the rounding rules shared by every stored amount.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Epsilon is the tolerance used when reconciling derived totals.
	Epsilon = decimal.New(1, -2)

	Zero = decimal.Zero
)

// Round2 rounds half away from zero to cents, matching NUMERIC(10,2) columns.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Round4 rounds to the precision of unit cost columns.
func Round4(d decimal.Decimal) decimal.Decimal {
	return d.Round(4)
}

// HasCents reports whether d carries no more than two decimal places.
func HasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// Within reports whether |a-b| < Epsilon.
func Within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// Parse reads a decimal from user input, trimming nothing and rejecting empty strings.
func Parse(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Sum adds the provided amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
