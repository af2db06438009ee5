package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// GiftCardBalance checks 0 <= remaining <= face.
func GiftCardBalance(remaining, face decimal.Decimal) error {
	if remaining.IsNegative() || remaining.GreaterThan(face) {
		return pkgerrors.Violation(RuleGiftCardBalanceRange, "remaining balance must be between 0 and the face value").
			WithDetails(map[string]any{"remaining_balance": remaining.String(), "face_value": face.String()})
	}
	return nil
}

// UsageWithinFaceValue checks that the total spent never exceeds the face value.
func UsageWithinFaceValue(used, face decimal.Decimal) error {
	if used.GreaterThan(face) {
		return pkgerrors.Violation(RuleGiftCardUsageExceedsFace, "gift card usage exceeds face value").
			WithDetails(map[string]any{"used": used.String(), "face_value": face.String()})
	}
	return nil
}

// GiftCardUsable rejects spending on retired cards.
func GiftCardUsable(status enums.GiftCardStatus) error {
	if status.IsTerminal() {
		return pkgerrors.Violation(RuleGiftCardStatusNotUsable, fmt.Sprintf("gift card is %s", status)).
			WithDetails(map[string]any{"status": status})
	}
	return nil
}

// SufficientBalance fails with an insufficient balance error when amount > remaining.
func SufficientBalance(amount, remaining decimal.Decimal) error {
	if amount.GreaterThan(remaining) {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "gift card does not have enough balance").
			WithRule(RuleGiftCardInsufficient).
			WithDetails(map[string]any{"requested": amount.String(), "remaining_balance": remaining.String()})
	}
	return nil
}

// GiftCardTransition validates a manual status change. Only void and archived
// can be set by hand; active and used follow the balance.
func GiftCardTransition(from, to enums.GiftCardStatus) error {
	if !to.IsValid() {
		return pkgerrors.Violation(RuleGiftCardStatusTransition, fmt.Sprintf("unknown gift card status %q", to))
	}
	if from == to {
		return nil
	}
	if from.IsTerminal() || !to.IsTerminal() {
		return pkgerrors.Violation(RuleGiftCardStatusTransition, fmt.Sprintf("cannot move gift card from %s to %s", from, to)).
			WithDetails(map[string]any{"from": from, "to": to})
	}
	return nil
}

// DerivedGiftCardStatus returns the status implied by the balance for cards that
// are still in circulation. Retired cards keep their status.
func DerivedGiftCardStatus(current enums.GiftCardStatus, remaining decimal.Decimal) enums.GiftCardStatus {
	if current.IsTerminal() {
		return current
	}
	if remaining.IsZero() {
		return enums.GiftCardStatusUsed
	}
	return enums.GiftCardStatusActive
}
