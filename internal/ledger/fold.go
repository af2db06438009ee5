package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/money"
)

// The fold functions below are shared by the incremental apply path and by
// recompute, so replaying every event from the empty state always lands on the
// projection the incremental path would have stored.

// GiftCardState is the projection of a card's usage rows.
type GiftCardState struct {
	FaceValue        decimal.Decimal
	RemainingBalance decimal.Decimal
	Status           enums.GiftCardStatus
}

// NewGiftCardState is the state of a card before any usage.
func NewGiftCardState(face decimal.Decimal, status enums.GiftCardStatus) GiftCardState {
	return GiftCardState{
		FaceValue:        face,
		RemainingBalance: face,
		Status:           consistency.DerivedGiftCardStatus(status, face),
	}
}

// Apply folds one usage amount into the state.
func (s GiftCardState) Apply(amount decimal.Decimal) (GiftCardState, error) {
	if err := consistency.PositiveAmount("amount_used", amount); err != nil {
		return s, err
	}
	remaining := money.Round2(s.RemainingBalance.Sub(amount))
	if remaining.IsNegative() {
		used := s.FaceValue.Sub(remaining)
		return s, consistency.UsageWithinFaceValue(used, s.FaceValue)
	}
	s.RemainingBalance = remaining
	s.Status = consistency.DerivedGiftCardStatus(s.Status, remaining)
	return s, nil
}

// FoldGiftCard replays usage amounts, oldest first.
func FoldGiftCard(face decimal.Decimal, status enums.GiftCardStatus, amounts []decimal.Decimal) (GiftCardState, error) {
	state := NewGiftCardState(face, status)
	for _, amount := range amounts {
		next, err := state.Apply(amount)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// InventoryState is the moving-average projection of an item's movements.
type InventoryState struct {
	QuantityOnHand int
	AverageCost    decimal.Decimal
	TotalCost      decimal.Decimal
}

// Apply folds one movement into the state:
//
//	total = prior_total + cost_delta
//	avg   = round4(total / new_qty)
//
// The total carries every cent that was booked; the average is derived from it
// and never fed back. An item that drops to zero units must also drop to zero cost.
func (s InventoryState) Apply(qtyDelta int, costDelta decimal.Decimal) (InventoryState, error) {
	if err := consistency.InventoryMovement(qtyDelta, costDelta, s.QuantityOnHand); err != nil {
		return s, err
	}
	if err := consistency.NonNegativeQuantity(s.QuantityOnHand, qtyDelta); err != nil {
		return s, err
	}

	newQty := s.QuantityOnHand + qtyDelta
	pooled := s.TotalCost.Add(costDelta)
	if pooled.IsNegative() {
		return s, pkgerrors.Violation(consistency.RuleInventoryCostNonNegative, "inventory total cost cannot be negative").
			WithDetails(map[string]any{"total_cost": s.TotalCost.String(), "cost_change": costDelta.String()})
	}

	if newQty == 0 {
		if !pooled.IsZero() {
			return s, pkgerrors.Violation(consistency.RuleInventoryResidualCost, "removing the last units must remove the remaining cost").
				WithDetails(map[string]any{"total_cost": s.TotalCost.String(), "cost_change": costDelta.String()})
		}
		return InventoryState{AverageCost: decimal.Zero, TotalCost: decimal.Zero}, nil
	}

	qty := decimal.NewFromInt(int64(newQty))
	avg := money.Round4(pooled.Div(qty))
	return InventoryState{
		QuantityOnHand: newQty,
		AverageCost:    avg,
		TotalCost:      money.Round2(pooled),
	}, nil
}

// Movement is the folded part of an inventory movement row.
type Movement struct {
	QuantityChange int
	CostChange     decimal.Decimal
}

// FoldInventory replays movements, oldest first.
func FoldInventory(movements []Movement) (InventoryState, error) {
	state := InventoryState{AverageCost: decimal.Zero, TotalCost: decimal.Zero}
	for _, m := range movements {
		next, err := state.Apply(m.QuantityChange, m.CostChange)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// SaleCost is the cost basis removed when selling qty units. Selling the last
// units takes the whole remaining cost so no residual is left behind.
func (s InventoryState) SaleCost(qty int) decimal.Decimal {
	if qty >= s.QuantityOnHand {
		return s.TotalCost
	}
	return money.Round2(s.AverageCost.Mul(decimal.NewFromInt(int64(qty))))
}

// AccountState is the projection of an account's transactions.
type AccountState struct {
	Balance decimal.Decimal
}

// Apply adds a signed amount to the balance.
func (s AccountState) Apply(amount decimal.Decimal) AccountState {
	return AccountState{Balance: money.Round2(s.Balance.Add(amount))}
}

// FoldAccount replays transaction amounts.
func FoldAccount(amounts []decimal.Decimal) AccountState {
	state := AccountState{Balance: decimal.Zero}
	for _, amount := range amounts {
		state = state.Apply(amount)
	}
	return state
}
