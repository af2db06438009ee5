package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/money"
)

// PositiveAmount rejects zero and negative amounts and amounts finer than cents.
func PositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.Violation(RuleAmountPositive, fmt.Sprintf("%s must be greater than zero", field)).
			WithDetails(map[string]any{"field": field, "value": amount.String()})
	}
	return Cents(field, amount)
}

// NonNegative rejects amounts below zero and amounts finer than cents.
func NonNegative(rule, field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.Violation(rule, fmt.Sprintf("%s cannot be negative", field)).
			WithDetails(map[string]any{"field": field, "value": amount.String()})
	}
	return Cents(field, amount)
}

// Cents rejects values that do not fit a NUMERIC(10,2) column without rounding.
func Cents(field string, amount decimal.Decimal) error {
	if !money.HasCents(amount) {
		return pkgerrors.Violation(RuleAmountPrecision, fmt.Sprintf("%s must have at most two decimal places", field)).
			WithDetails(map[string]any{"field": field, "value": amount.String()})
	}
	return nil
}
