package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/money"
)

var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusOrdered: {enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusShipped: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// OrderTransition validates an order status change. Cancelled and delivered are terminal.
func OrderTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Violation(RuleOrderStatusTransition, fmt.Sprintf("unknown order status %q", to))
	}
	if from == to {
		return nil
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return pkgerrors.Violation(RuleOrderStatusTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// OrderAmounts are the money fields stored on an order.
type OrderAmounts struct {
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	TotalCost       decimal.Decimal
	CreditCardSpend decimal.Decimal
	GiftCardSpend   decimal.Decimal
}

// OrderTotals checks non-negativity, total = subtotal + tax + shipping, gift card
// spend within the total and, for mixed payments, that both spends add up to the total.
func OrderTotals(method enums.PaymentMethod, amounts OrderAmounts) error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"subtotal", amounts.Subtotal},
		{"tax", amounts.Tax},
		{"shipping", amounts.Shipping},
		{"total_cost", amounts.TotalCost},
		{"credit_card_spend", amounts.CreditCardSpend},
		{"gift_card_spend", amounts.GiftCardSpend},
	}
	for _, f := range fields {
		if err := NonNegative(RuleOrderAmountNonNegative, f.name, f.value); err != nil {
			return err
		}
	}

	expected := money.Sum(amounts.Subtotal, amounts.Tax, amounts.Shipping)
	if !money.Within(amounts.TotalCost, expected) {
		return pkgerrors.Violation(RuleOrderTotalMismatch, "total cost must equal subtotal + tax + shipping").
			WithDetails(map[string]any{"total_cost": amounts.TotalCost.String(), "expected": expected.String()})
	}

	if amounts.GiftCardSpend.GreaterThan(amounts.TotalCost) && !money.Within(amounts.GiftCardSpend, amounts.TotalCost) {
		return pkgerrors.Violation(RuleOrderPaymentMismatch, "gift card spend cannot exceed the order total").
			WithDetails(map[string]any{"gift_card_spend": amounts.GiftCardSpend.String(), "total_cost": amounts.TotalCost.String()})
	}

	if method == enums.PaymentMethodMixed {
		paid := amounts.CreditCardSpend.Add(amounts.GiftCardSpend)
		if !money.Within(paid, amounts.TotalCost) {
			return pkgerrors.Violation(RuleOrderPaymentMismatch, "gift card and credit card spend must add up to the total cost").
				WithDetails(map[string]any{"total_cost": amounts.TotalCost.String(), "paid": paid.String()})
		}
	}
	return nil
}

// OrderItem checks quantity > 0 and total_price = quantity * unit_price.
func OrderItem(quantity int, unitPrice, totalPrice decimal.Decimal) error {
	if quantity <= 0 {
		return pkgerrors.Violation(RuleOrderItemQuantityPositive, "order item quantity must be positive").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if err := NonNegative(RuleOrderAmountNonNegative, "unit_price", unitPrice); err != nil {
		return err
	}
	expected := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if !money.Within(totalPrice, expected) {
		return pkgerrors.Violation(RuleOrderItemTotalMismatch, "order item total must equal quantity * unit price").
			WithDetails(map[string]any{"total_price": totalPrice.String(), "expected": expected.String()})
	}
	return nil
}
