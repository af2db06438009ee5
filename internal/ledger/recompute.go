package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// FieldDrift is one projection field whose cached value differed from the replay.
type FieldDrift struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Drift reports what a recompute changed.
type Drift struct {
	Kind   string       `json:"kind"`
	ID     int64        `json:"id"`
	Fields []FieldDrift `json:"fields,omitempty"`
}

// Changed reports whether the cached projection was repaired.
func (d Drift) Changed() bool {
	return len(d.Fields) > 0
}

func (d *Drift) compareDecimal(field string, before, after decimal.Decimal) {
	if !before.Equal(after) {
		d.Fields = append(d.Fields, FieldDrift{Field: field, Before: before.String(), After: after.String()})
	}
}

func (d *Drift) compareString(field, before, after string) {
	if before != after {
		d.Fields = append(d.Fields, FieldDrift{Field: field, Before: before, After: after})
	}
}

// RecomputeGiftCard replays a card's usage rows from face value and stores the result.
func (e *Engine) RecomputeGiftCard(ctx context.Context, id int64) (Drift, error) {
	var drift Drift
	err := e.Atomically(ctx, []string{Key(KindGiftCard, id)}, func(tx *gorm.DB) error {
		var err error
		drift, err = e.RecomputeGiftCardTx(ctx, tx, id)
		return err
	})
	return drift, err
}

// RecomputeGiftCardTx is RecomputeGiftCard inside the caller's transaction.
func (e *Engine) RecomputeGiftCardTx(ctx context.Context, tx *gorm.DB, id int64) (Drift, error) {
	repo := e.repo.WithTx(tx)
	drift := Drift{Kind: KindGiftCard, ID: id}

	card, err := repo.GetGiftCard(ctx, id)
	if err != nil {
		return drift, notFoundOr(err, "gift card", id)
	}
	amounts, err := repo.UsageAmounts(ctx, id)
	if err != nil {
		return drift, pkgerrors.Storage(err, "loading gift card usage")
	}
	state, err := FoldGiftCard(card.FaceValue, card.Status, amounts)
	if err != nil {
		return drift, err
	}

	drift.compareDecimal("remaining_balance", card.RemainingBalance, state.RemainingBalance)
	drift.compareString("status", string(card.Status), string(state.Status))
	if drift.Changed() {
		if err := repo.SaveGiftCardProjection(ctx, id, state.RemainingBalance, state.Status); err != nil {
			return drift, pkgerrors.Storage(err, "saving recomputed gift card")
		}
	}
	e.reportDrift(ctx, drift)
	return drift, nil
}

// RecomputeInventoryItem replays an item's movements from zero stock and stores the result.
func (e *Engine) RecomputeInventoryItem(ctx context.Context, id int64) (Drift, error) {
	var drift Drift
	err := e.Atomically(ctx, []string{Key(KindInventoryItem, id)}, func(tx *gorm.DB) error {
		var err error
		drift, err = e.RecomputeInventoryItemTx(ctx, tx, id)
		return err
	})
	return drift, err
}

// RecomputeInventoryItemTx is RecomputeInventoryItem inside the caller's transaction.
func (e *Engine) RecomputeInventoryItemTx(ctx context.Context, tx *gorm.DB, id int64) (Drift, error) {
	repo := e.repo.WithTx(tx)
	drift := Drift{Kind: KindInventoryItem, ID: id}

	item, err := repo.GetInventoryItem(ctx, id)
	if err != nil {
		return drift, notFoundOr(err, "inventory item", id)
	}
	movements, err := repo.Movements(ctx, id)
	if err != nil {
		return drift, pkgerrors.Storage(err, "loading inventory movements")
	}
	state, err := FoldInventory(movements)
	if err != nil {
		return drift, err
	}

	drift.compareString("quantity_on_hand", strconv.Itoa(item.QuantityOnHand), strconv.Itoa(state.QuantityOnHand))
	drift.compareDecimal("average_cost", item.AverageCost, state.AverageCost)
	drift.compareDecimal("total_cost", item.TotalCost, state.TotalCost)
	if drift.Changed() {
		if err := repo.SaveInventoryProjection(ctx, id, state); err != nil {
			return drift, pkgerrors.Storage(err, "saving recomputed inventory item")
		}
	}
	e.reportDrift(ctx, drift)
	return drift, nil
}

// RecomputeAccount replays an account's transactions from zero and stores the result.
func (e *Engine) RecomputeAccount(ctx context.Context, id int64) (Drift, error) {
	var drift Drift
	err := e.Atomically(ctx, []string{Key(KindAccount, id)}, func(tx *gorm.DB) error {
		var err error
		drift, err = e.RecomputeAccountTx(ctx, tx, id)
		return err
	})
	return drift, err
}

// RecomputeAccountTx is RecomputeAccount inside the caller's transaction.
func (e *Engine) RecomputeAccountTx(ctx context.Context, tx *gorm.DB, id int64) (Drift, error) {
	repo := e.repo.WithTx(tx)
	drift := Drift{Kind: KindAccount, ID: id}

	account, err := repo.GetAccount(ctx, id)
	if err != nil {
		return drift, notFoundOr(err, "account", id)
	}
	amounts, err := repo.TransactionAmounts(ctx, id)
	if err != nil {
		return drift, pkgerrors.Storage(err, "loading account transactions")
	}
	state := FoldAccount(amounts)

	drift.compareDecimal("balance", account.Balance, state.Balance)
	if drift.Changed() {
		if err := repo.SaveAccountBalance(ctx, id, state.Balance); err != nil {
			return drift, pkgerrors.Storage(err, "saving recomputed account")
		}
	}
	e.reportDrift(ctx, drift)
	return drift, nil
}

// Recompute dispatches on the entity kind.
func (e *Engine) Recompute(ctx context.Context, kind string, id int64) (Drift, error) {
	switch kind {
	case KindGiftCard:
		return e.RecomputeGiftCard(ctx, id)
	case KindInventoryItem:
		return e.RecomputeInventoryItem(ctx, id)
	case KindAccount:
		return e.RecomputeAccount(ctx, id)
	}
	return Drift{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
}

// RecomputeTx dispatches on the entity kind inside the caller's transaction.
func (e *Engine) RecomputeTx(ctx context.Context, tx *gorm.DB, kind string, id int64) (Drift, error) {
	switch kind {
	case KindGiftCard:
		return e.RecomputeGiftCardTx(ctx, tx, id)
	case KindInventoryItem:
		return e.RecomputeInventoryItemTx(ctx, tx, id)
	case KindAccount:
		return e.RecomputeAccountTx(ctx, tx, id)
	}
	return Drift{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
}

// RecomputableKinds lists the kinds with cached projections, in sweep order.
func RecomputableKinds() []string {
	return []string{KindGiftCard, KindInventoryItem, KindAccount}
}

var kindTables = map[string]string{
	KindGiftCard:      "gift_cards",
	KindInventoryItem: "inventory_items",
	KindAccount:       "accounts",
}

// EntityIDs lists every id of a recomputable kind.
func (e *Engine) EntityIDs(ctx context.Context, kind string) ([]int64, error) {
	table, ok := kindTables[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
	}
	ids, err := e.repo.IDs(ctx, table)
	if err != nil {
		return nil, pkgerrors.Storage(err, "listing "+table)
	}
	return ids, nil
}

func (e *Engine) reportDrift(ctx context.Context, drift Drift) {
	e.metrics.Recomputed(drift.Kind, drift.Changed())
	if !drift.Changed() {
		return
	}
	ctx = e.logg.WithEntity(ctx, drift.Kind, drift.ID)
	ctx = e.logg.WithField(ctx, "drift", drift.Fields)
	e.logg.Warn(ctx, "cached projection drifted from event history")
}
