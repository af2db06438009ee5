package consistency

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// InventoryMovement validates a movement before it is folded into the item.
// A quantity change carries cost of the same sign (or none); a pure cost
// revaluation is only meaningful while stock is on hand.
func InventoryMovement(qtyDelta int, costDelta decimal.Decimal, onHand int) error {
	if qtyDelta == 0 && costDelta.IsZero() {
		return pkgerrors.Violation(RuleInventoryZeroMovement, "movement must change quantity or cost")
	}
	if err := Cents("cost_change", costDelta); err != nil {
		return err
	}
	details := map[string]any{"quantity_change": qtyDelta, "cost_change": costDelta.String()}
	switch {
	case qtyDelta > 0 && costDelta.IsNegative(),
		qtyDelta < 0 && costDelta.IsPositive():
		return pkgerrors.Violation(RuleInventoryCostSign, "cost change must move in the same direction as quantity").
			WithDetails(details)
	case qtyDelta == 0 && onHand == 0:
		return pkgerrors.Violation(RuleInventoryCostSign, "cannot revalue an item with no stock on hand").
			WithDetails(details)
	}
	return nil
}

// NonNegativeQuantity fails with a negative inventory error when stock would drop below zero.
func NonNegativeQuantity(current, delta int) error {
	if current+delta < 0 {
		return pkgerrors.New(pkgerrors.CodeNegativeInventory, "inventory quantity cannot be negative").
			WithRule(RuleInventoryQuantityNegative).
			WithDetails(map[string]any{"quantity_on_hand": current, "quantity_change": delta})
	}
	return nil
}
