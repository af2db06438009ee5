package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db/models"
)

// Repository handles inventory item persistence. Quantity and cost columns are
// written by the ledger engine.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to inventory operations.
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

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns items ordered by name. A non-empty search matches name, sku or upc.
func (r *Repository) List(ctx context.Context, search string) ([]models.InventoryItem, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(item_name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(upc) LIKE ?", like, like, like)
	}
	var items []models.InventoryItem
	if err := q.Order("item_name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) UpdateDetails(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Model(item).
		Select("item_name", "sku", "upc", "notes").
		Updates(item).Error
}

// Movements lists an item's movements newest first.
func (r *Repository) Movements(ctx context.Context, id int64) ([]models.InventoryMovement, error) {
	var rows []models.InventoryMovement
	err := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", id).
		Order("movement_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the item and its movements and detaches sale lines.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.SaleItem{}).Where("inventory_item_id = ?", id).Update("inventory_item_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("inventory_item_id = ?", id).Delete(&models.InventoryMovement{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Match finds an item by sku, then by upc. It returns nil when neither matches.
func (r *Repository) Match(ctx context.Context, sku, upc *string) (*models.InventoryItem, error) {
	db := r.db.WithContext(ctx)
	for _, match := range []struct {
		column string
		value  *string
	}{{"sku", sku}, {"upc", upc}} {
		if match.value == nil {
			continue
		}
		var item models.InventoryItem
		err := db.First(&item, match.column+" = ?", *match.value).Error
		if err == nil {
			return &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// FindOrCreate returns the matching item or creates an empty one named after
// the line.
func (r *Repository) FindOrCreate(ctx context.Context, name string, sku, upc *string) (*models.InventoryItem, error) {
	item, err := r.Match(ctx, sku, upc)
	if err != nil || item != nil {
		return item, err
	}
	item = &models.InventoryItem{
		ItemName:    name,
		SKU:         sku,
		UPC:         upc,
		AverageCost: decimal.Zero,
		TotalCost:   decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}
