package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/retailers"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, filters ListFilters) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if code := retailers.NormalizeCode(filters.RetailerCode); code != "" && code != "ALL" {
		q = q.Where("retailer_id IN (?)", r.db.Model(&models.Retailer{}).Select("id").Where("code = ?", code))
	}
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.From != nil {
		q = q.Where("order_date >= ?", *filters.From)
	}
	if filters.To != nil {
		q = q.Where("order_date <= ?", *filters.To)
	}
	var orders []models.Order
	if err := q.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder writes the editable columns. Status and gift card spend have
// their own writers.
func (r *repository) UpdateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Model(order).
		Select("order_number", "order_date", "order_email", "payment_method", "subtotal", "tax", "shipping",
			"total_cost", "credit_card_spend", "receipt_path").
		Updates(order).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repository) SetGiftCardSpend(ctx context.Context, id int64, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("gift_card_spend", amount).Error
}

func (r *repository) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItem(ctx context.Context, orderID, itemID int64) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes a line and unlinks any movement that received it.
func (r *repository) DeleteItem(ctx context.Context, itemID int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.InventoryMovement{}).Where("order_item_id = ?", itemID).Update("order_item_id", nil).Error; err != nil {
		return err
	}
	return db.Delete(&models.OrderItem{}, itemID).Error
}

func (r *repository) Usage(ctx context.Context, orderID int64) ([]models.GiftCardUsage, error) {
	var rows []models.GiftCardUsage
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) AccountType(ctx context.Context, accountID int64) (enums.AccountType, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Select("id", "type").First(&account, "id = ?", accountID).Error; err != nil {
		return "", err
	}
	return account.Type, nil
}

// Charged reports whether any account transaction already pays for the order.
func (r *repository) Charged(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AccountTransaction{}).
		Where("related_type = ? AND related_id = ?", enums.AccountRelatedTypeOrder, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *repository) Attachments(ctx context.Context, orderID int64) ([]models.Attachment, error) {
	var rows []models.Attachment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteAttachment(ctx context.Context, orderID, attachmentID int64) error {
	res := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.Attachment{}, attachmentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrder removes the order with its lines and attachments. Gift card usage
// and received movements stay as history with their links cleared.
func (r *repository) DeleteOrder(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.GiftCardUsage{}).Where("order_id = ?", id).Update("order_id", nil).Error; err != nil {
		return err
	}
	lines := db.Model(&models.OrderItem{}).Select("id").Where("order_id = ?", id)
	if err := db.Model(&models.InventoryMovement{}).Where("order_item_id IN (?)", lines).Update("order_item_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.Attachment{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
