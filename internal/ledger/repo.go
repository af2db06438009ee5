package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Repository reads and writes the event rows and cached projections the engine owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetGiftCard(ctx context.Context, id int64) (*models.GiftCard, error)
	UsageAmounts(ctx context.Context, giftCardID int64) ([]decimal.Decimal, error)
	CreateUsage(ctx context.Context, usage *models.GiftCardUsage) error
	SaveGiftCardProjection(ctx context.Context, id int64, remaining decimal.Decimal, status enums.GiftCardStatus) error

	GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error)
	Movements(ctx context.Context, itemID int64) ([]Movement, error)
	CreateMovement(ctx context.Context, movement *models.InventoryMovement) error
	SaveInventoryProjection(ctx context.Context, id int64, state InventoryState) error

	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	TransactionAmounts(ctx context.Context, accountID int64) ([]decimal.Decimal, error)
	CreateTransaction(ctx context.Context, txn *models.AccountTransaction) error
	SaveAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	Exists(ctx context.Context, table string, id int64) (bool, error)
	IDs(ctx context.Context, table string) ([]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// forUpdate takes a row lock where the dialect has one. sqlite serializes
// writers on its single connection instead.
func (r *repository) forUpdate(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *repository) GetGiftCard(ctx context.Context, id int64) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := r.forUpdate(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repository) UsageAmounts(ctx context.Context, giftCardID int64) ([]decimal.Decimal, error) {
	var usages []models.GiftCardUsage
	if err := r.db.WithContext(ctx).
		Select("id", "amount_used").
		Where("gift_card_id = ?", giftCardID).
		Order("id ASC").
		Find(&usages).Error; err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, 0, len(usages))
	for _, u := range usages {
		amounts = append(amounts, u.AmountUsed)
	}
	return amounts, nil
}

func (r *repository) CreateUsage(ctx context.Context, usage *models.GiftCardUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *repository) SaveGiftCardProjection(ctx context.Context, id int64, remaining decimal.Decimal, status enums.GiftCardStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"remaining_balance": remaining,
			"status":            status,
		}).Error
}

func (r *repository) GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.forUpdate(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Movements(ctx context.Context, itemID int64) ([]Movement, error) {
	var rows []models.InventoryMovement
	if err := r.db.WithContext(ctx).
		Select("id", "quantity_change", "cost_change").
		Where("inventory_item_id = ?", itemID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Movement, 0, len(rows))
	for _, m := range rows {
		out = append(out, Movement{QuantityChange: m.QuantityChange, CostChange: m.CostChange})
	}
	return out, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) SaveInventoryProjection(ctx context.Context, id int64, state InventoryState) error {
	return r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity_on_hand": state.QuantityOnHand,
			"average_cost":     state.AverageCost,
			"total_cost":       state.TotalCost,
		}).Error
}

func (r *repository) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.forUpdate(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) TransactionAmounts(ctx context.Context, accountID int64) ([]decimal.Decimal, error) {
	var rows []models.AccountTransaction
	if err := r.db.WithContext(ctx).
		Select("id", "amount").
		Where("account_id = ?", accountID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, 0, len(rows))
	for _, t := range rows {
		amounts = append(amounts, t.Amount)
	}
	return amounts, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.AccountTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) SaveAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (r *repository) Exists(ctx context.Context, table string, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) IDs(ctx context.Context, table string) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Table(table).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
