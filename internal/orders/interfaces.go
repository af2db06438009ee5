package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/inventory"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Repository defines persistence operations for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, filters ListFilters) ([]models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) error
	SetGiftCardSpend(ctx context.Context, id int64, amount decimal.Decimal) error
	Items(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	FindItem(ctx context.Context, orderID, itemID int64) (*models.OrderItem, error)
	DeleteItem(ctx context.Context, itemID int64) error
	Usage(ctx context.Context, orderID int64) ([]models.GiftCardUsage, error)
	AccountType(ctx context.Context, accountID int64) (enums.AccountType, error)
	Charged(ctx context.Context, orderID int64) (bool, error)
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	Attachments(ctx context.Context, orderID int64) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, orderID, attachmentID int64) error
	DeleteOrder(ctx context.Context, id int64) error
}

// InventoryReceiver resolves the inventory item a delivered line lands in.
type InventoryReceiver interface {
	Match(ctx context.Context, tx *gorm.DB, sku, upc *string) (*models.InventoryItem, error)
	FindOrCreate(ctx context.Context, tx *gorm.DB, name string, sku, upc *string) (*models.InventoryItem, error)
}

type inventoryReceiver struct {
	repo *inventory.Repository
}

// NewInventoryReceiver adapts the inventory repository for deliveries.
func NewInventoryReceiver(repo *inventory.Repository) InventoryReceiver {
	return &inventoryReceiver{repo: repo}
}

func (r *inventoryReceiver) Match(ctx context.Context, tx *gorm.DB, sku, upc *string) (*models.InventoryItem, error) {
	return r.repo.WithTx(tx).Match(ctx, sku, upc)
}

func (r *inventoryReceiver) FindOrCreate(ctx context.Context, tx *gorm.DB, name string, sku, upc *string) (*models.InventoryItem, error) {
	return r.repo.WithTx(tx).FindOrCreate(ctx, name, sku, upc)
}

// ListFilters narrows ListOrders. An empty or "ALL" retailer code matches
// every retailer.
type ListFilters struct {
	RetailerCode string
	Status       *enums.OrderStatus
	From         *time.Time
	To           *time.Time
}
