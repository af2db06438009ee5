package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/metrics"
)

// Operation kinds reported to metrics.
const (
	OpGiftCardUsage      = "gift_card_usage"
	OpInventoryMovement  = "inventory_movement"
	OpAccountTransaction = "account_transaction"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Engine applies events to the cached projections and rebuilds them on demand.
// Every public operation runs under the entity's lock inside one transaction.
// The *Tx variants join a caller's transaction; the caller is then responsible
// for holding the locks (see Atomically).
type Engine struct {
	tx      txRunner
	repo    Repository
	locks   *Locker
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics reports operations to the provided counters.
func WithMetrics(m *metrics.LedgerMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.logg = l }
}

// WithLocker shares a lock table with other engines in the same process.
func WithLocker(l *Locker) Option {
	return func(e *Engine) { e.locks = l }
}

// WithClock overrides the time source used for default event dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires an engine over the transaction runner and repository.
func NewEngine(tx txRunner, repo Repository, opts ...Option) (*Engine, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	e := &Engine{
		tx:    tx,
		repo:  repo,
		locks: NewLocker(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logg == nil {
		e.logg = logger.New(logger.Options{ServiceName: "ledger", Output: io.Discard})
	}
	return e, nil
}

// Atomically locks the given entity keys and runs fn in one transaction.
// Domain services use it to compose several engine *Tx calls into one action.
func (e *Engine) Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error {
	unlock, err := e.locks.Lock(ctx, keys...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "waiting for entity lock")
	}
	defer unlock()

	if err := e.tx.WithTx(ctx, fn); err != nil {
		return pkgerrors.Storage(err, "ledger transaction failed")
	}
	return nil
}

// UsageInput describes spending from a gift card.
type UsageInput struct {
	GiftCardID int64
	Amount     decimal.Decimal
	OrderID    *int64
	UsageDate  time.Time
}

// ApplyGiftCardUsage records a usage row and decrements the card balance. The
// card moves to used when the balance reaches zero.
func (e *Engine) ApplyGiftCardUsage(ctx context.Context, in UsageInput) (*models.GiftCardUsage, error) {
	var usage *models.GiftCardUsage
	err := e.Atomically(ctx, []string{Key(KindGiftCard, in.GiftCardID)}, func(tx *gorm.DB) error {
		var err error
		usage, err = e.ApplyGiftCardUsageTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// ApplyGiftCardUsageTx is ApplyGiftCardUsage inside the caller's transaction.
func (e *Engine) ApplyGiftCardUsageTx(ctx context.Context, tx *gorm.DB, in UsageInput) (*models.GiftCardUsage, error) {
	usage, err := e.applyUsage(ctx, e.repo.WithTx(tx), in)
	e.observe(ctx, OpGiftCardUsage, KindGiftCard, in.GiftCardID, err)
	return usage, err
}

func (e *Engine) applyUsage(ctx context.Context, repo Repository, in UsageInput) (*models.GiftCardUsage, error) {
	if err := consistency.PositiveAmount("amount", in.Amount); err != nil {
		return nil, err
	}

	card, err := repo.GetGiftCard(ctx, in.GiftCardID)
	if err != nil {
		return nil, notFoundOr(err, "gift card", in.GiftCardID)
	}
	if err := consistency.GiftCardUsable(card.Status); err != nil {
		return nil, err
	}
	if in.OrderID != nil {
		if err := e.requireTarget(ctx, repo, "orders", "order", *in.OrderID); err != nil {
			return nil, err
		}
	}
	if err := consistency.SufficientBalance(in.Amount, card.RemainingBalance); err != nil {
		return nil, err
	}

	state := GiftCardState{FaceValue: card.FaceValue, RemainingBalance: card.RemainingBalance, Status: card.Status}
	next, err := state.Apply(in.Amount)
	if err != nil {
		return nil, err
	}

	usage := &models.GiftCardUsage{
		GiftCardID: card.ID,
		OrderID:    in.OrderID,
		AmountUsed: in.Amount,
		UsageDate:  e.dateOr(in.UsageDate),
	}
	if err := repo.CreateUsage(ctx, usage); err != nil {
		return nil, pkgerrors.Storage(err, "recording gift card usage")
	}
	if err := repo.SaveGiftCardProjection(ctx, card.ID, next.RemainingBalance, next.Status); err != nil {
		return nil, pkgerrors.Storage(err, "updating gift card balance")
	}
	return usage, nil
}

// MovementInput describes a signed change to an inventory item.
type MovementInput struct {
	ItemID         int64
	QuantityChange int
	CostChange     decimal.Decimal
	Source         MovementSource
	MovementDate   time.Time
	Notes          *string
}

// ApplyInventoryMovement records a movement and folds it into the item's
// quantity and moving-average cost.
func (e *Engine) ApplyInventoryMovement(ctx context.Context, in MovementInput) (*models.InventoryMovement, error) {
	var movement *models.InventoryMovement
	err := e.Atomically(ctx, []string{Key(KindInventoryItem, in.ItemID)}, func(tx *gorm.DB) error {
		var err error
		movement, err = e.ApplyInventoryMovementTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// ApplyInventoryMovementTx is ApplyInventoryMovement inside the caller's transaction.
func (e *Engine) ApplyInventoryMovementTx(ctx context.Context, tx *gorm.DB, in MovementInput) (*models.InventoryMovement, error) {
	movement, err := e.applyMovement(ctx, e.repo.WithTx(tx), in)
	e.observe(ctx, OpInventoryMovement, KindInventoryItem, in.ItemID, err)
	return movement, err
}

func (e *Engine) applyMovement(ctx context.Context, repo Repository, in MovementInput) (*models.InventoryMovement, error) {
	if in.Source == nil {
		return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, "movement source is required")
	}

	item, err := repo.GetInventoryItem(ctx, in.ItemID)
	if err != nil {
		return nil, notFoundOr(err, "inventory item", in.ItemID)
	}

	switch src := in.Source.(type) {
	case OrderSource:
		if err := e.requireTarget(ctx, repo, "orders", "order", src.OrderID); err != nil {
			return nil, err
		}
		if src.OrderItemID != nil {
			if err := e.requireTarget(ctx, repo, "order_items", "order item", *src.OrderItemID); err != nil {
				return nil, err
			}
		}
	case SaleSource:
		if err := e.requireTarget(ctx, repo, "sales", "sale", src.SaleID); err != nil {
			return nil, err
		}
	}

	next, err := StateOf(item).Apply(in.QuantityChange, in.CostChange)
	if err != nil {
		return nil, err
	}

	sourceID, orderItemID := in.Source.columns()
	movement := &models.InventoryMovement{
		InventoryItemID: item.ID,
		SourceType:      in.Source.SourceType(),
		SourceID:        sourceID,
		OrderItemID:     orderItemID,
		QuantityChange:  in.QuantityChange,
		CostChange:      in.CostChange,
		MovementDate:    e.timeOr(in.MovementDate),
		Notes:           in.Notes,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, pkgerrors.Storage(err, "recording inventory movement")
	}
	if err := repo.SaveInventoryProjection(ctx, item.ID, next); err != nil {
		return nil, pkgerrors.Storage(err, "updating inventory item")
	}
	return movement, nil
}

// InventoryItemTx loads an item inside the caller's transaction.
func (e *Engine) InventoryItemTx(ctx context.Context, tx *gorm.DB, id int64) (*models.InventoryItem, error) {
	item, err := e.repo.WithTx(tx).GetInventoryItem(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "inventory item", id)
	}
	return item, nil
}

// StateOf extracts the cached projection of an item.
func StateOf(item *models.InventoryItem) InventoryState {
	return InventoryState{
		QuantityOnHand: item.QuantityOnHand,
		AverageCost:    item.AverageCost,
		TotalCost:      item.TotalCost,
	}
}

// TransactionInput describes a signed change to an account balance.
type TransactionInput struct {
	AccountID       int64
	Amount          decimal.Decimal
	Related         RelatedRef
	Description     *string
	TransactionDate time.Time
}

// ApplyAccountTransaction records a transaction and adds its amount to the
// balance. Credit card balances are debt and may not pass the credit limit.
func (e *Engine) ApplyAccountTransaction(ctx context.Context, in TransactionInput) (*models.AccountTransaction, error) {
	var txn *models.AccountTransaction
	err := e.Atomically(ctx, []string{Key(KindAccount, in.AccountID)}, func(tx *gorm.DB) error {
		var err error
		txn, err = e.ApplyAccountTransactionTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplyAccountTransactionTx is ApplyAccountTransaction inside the caller's transaction.
func (e *Engine) ApplyAccountTransactionTx(ctx context.Context, tx *gorm.DB, in TransactionInput) (*models.AccountTransaction, error) {
	txn, err := e.applyTransaction(ctx, e.repo.WithTx(tx), in)
	e.observe(ctx, OpAccountTransaction, KindAccount, in.AccountID, err)
	return txn, err
}

func (e *Engine) applyTransaction(ctx context.Context, repo Repository, in TransactionInput) (*models.AccountTransaction, error) {
	if in.Related == nil {
		return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, "transaction link is required")
	}
	if err := consistency.AccountAmount(in.Related.RelatedType(), in.Amount); err != nil {
		return nil, err
	}

	account, err := repo.GetAccount(ctx, in.AccountID)
	if err != nil {
		return nil, notFoundOr(err, "account", in.AccountID)
	}

	switch rel := in.Related.(type) {
	case RelatedOrder:
		if err := e.requireTarget(ctx, repo, "orders", "order", rel.OrderID); err != nil {
			return nil, err
		}
	case RelatedSale:
		if err := e.requireTarget(ctx, repo, "sales", "sale", rel.SaleID); err != nil {
			return nil, err
		}
	}

	next := AccountState{Balance: account.Balance}.Apply(in.Amount)
	if err := consistency.AccountBalance(account.Type, next.Balance, account.CreditLimit); err != nil {
		return nil, err
	}

	txn := &models.AccountTransaction{
		AccountID:       account.ID,
		RelatedType:     in.Related.RelatedType(),
		RelatedID:       in.Related.relatedID(),
		Amount:          in.Amount,
		Description:     in.Description,
		TransactionDate: e.timeOr(in.TransactionDate),
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Storage(err, "recording account transaction")
	}
	if err := repo.SaveAccountBalance(ctx, account.ID, next.Balance); err != nil {
		return nil, pkgerrors.Storage(err, "updating account balance")
	}
	return txn, nil
}

func (e *Engine) requireTarget(ctx context.Context, repo Repository, table, label string, id int64) error {
	ok, err := repo.Exists(ctx, table, id)
	if err != nil {
		return pkgerrors.Storage(err, fmt.Sprintf("checking %s", label))
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %d not found", label, id)).
			WithRule(consistency.RuleSourceNotFound).
			WithDetails(map[string]any{label + "_id": id})
	}
	return nil
}

func (e *Engine) observe(ctx context.Context, op, kind string, id int64, err error) {
	ctx = e.logg.WithEntity(ctx, kind, id)
	if err == nil {
		e.metrics.Applied(op)
		e.logg.Debug(ctx, op+" applied")
		return
	}
	typed := pkgerrors.As(err)
	code := pkgerrors.CodeInternal
	if typed != nil {
		code = typed.Code()
	}
	e.metrics.Rejected(op, string(code))
	if code == pkgerrors.CodeStorage || code == pkgerrors.CodeInternal {
		e.logg.Error(ctx, op+" failed", err)
		return
	}
	e.logg.Debug(ctx, op+" rejected: "+err.Error())
}

func (e *Engine) timeOr(t time.Time) time.Time {
	if t.IsZero() {
		return e.now().UTC()
	}
	return t.UTC()
}

func (e *Engine) dateOr(t time.Time) time.Time {
	return DateOnly(e.timeOr(t))
}

// DateOnly truncates to midnight UTC for DATE columns.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func notFoundOr(err error, label string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s %d not found", label, id)).
			WithDetails(map[string]any{"id": id})
	}
	return pkgerrors.Storage(err, fmt.Sprintf("loading %s", label))
}
