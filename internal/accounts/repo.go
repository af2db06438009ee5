package accounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db/models"
)

// Repository handles account persistence. Balances are written by the ledger
// engine, never here.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to account operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns accounts ordered by type then name.
func (r *Repository) List(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.WithContext(ctx).Order("type ASC, name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Repository) UpdateDetails(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Model(account).
		Select("name", "credit_limit", "notes").
		Updates(account).Error
}

// Transactions lists an account's transactions newest first.
func (r *Repository) Transactions(ctx context.Context, id int64) ([]models.AccountTransaction, error) {
	var rows []models.AccountTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", id).
		Order("transaction_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the account and its transactions.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("account_id = ?", id).Delete(&models.AccountTransaction{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Account{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
