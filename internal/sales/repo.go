package sales

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Repository persists sales and their lines. Stock effects go through the
// ledger engine.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sale operations.
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

func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Sale, error) {
	q := r.db.WithContext(ctx).Model(&models.Sale{})
	if filter.From != nil {
		q = q.Where("sale_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("sale_date <= ?", *filter.To)
	}
	var rows []models.Sale
	if err := q.Order("sale_date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes the header and the derived totals.
func (r *Repository) Save(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Model(sale).
		Select("buyer", "sale_date", "notes", "total_value", "total_cost", "profit").
		Updates(sale).Error
}

func (r *Repository) Lines(ctx context.Context, saleID int64) ([]models.SaleItem, error) {
	var lines []models.SaleItem
	if err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.SaleItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *Repository) DeleteLines(ctx context.Context, saleID int64) error {
	return r.db.WithContext(ctx).Where("sale_id = ?", saleID).Delete(&models.SaleItem{}).Error
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Sale{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Proceeds sums the sale's account transactions per account. Accounts whose
// postings net to zero are left out.
func (r *Repository) Proceeds(ctx context.Context, saleID int64) (map[int64]decimal.Decimal, error) {
	var rows []models.AccountTransaction
	err := r.db.WithContext(ctx).
		Where("related_type = ? AND related_id = ?", enums.AccountRelatedTypeSale, saleID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]decimal.Decimal)
	for _, row := range rows {
		out[row.AccountID] = out[row.AccountID].Add(row.Amount)
	}
	for id, amount := range out {
		if amount.IsZero() {
			delete(out, id)
		}
	}
	return out, nil
}

func (r *Repository) AccountType(ctx context.Context, accountID int64) (enums.AccountType, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("id", "type").First(&account, "id = ?", accountID).Error; err != nil {
		return "", err
	}
	return account.Type, nil
}
