package consistency

import (
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// SaleLines requires at least one line.
func SaleLines(count int) error {
	if count == 0 {
		return pkgerrors.Violation(RuleSaleEmpty, "sale must have at least one item")
	}
	return nil
}

// SaleQuantity requires a positive quantity on each sold line.
func SaleQuantity(quantity int) error {
	if quantity <= 0 {
		return pkgerrors.Violation(RuleSaleQuantityPositive, "sale item quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}
	return nil
}
