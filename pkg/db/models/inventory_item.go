package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem holds on-hand stock. Quantity and cost fields are projections
// over the item's movements using the moving-average method.
type InventoryItem struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ItemName       string          `gorm:"column:item_name;type:varchar(255);not null"`
	SKU            *string         `gorm:"column:sku;type:varchar(64);uniqueIndex"`
	UPC            *string         `gorm:"column:upc;type:varchar(64);uniqueIndex"`
	QuantityOnHand int             `gorm:"column:quantity_on_hand;not null;default:0"`
	AverageCost    decimal.Decimal `gorm:"column:average_cost;type:numeric(10,4);not null;default:0"`
	TotalCost      decimal.Decimal `gorm:"column:total_cost;type:numeric(10,2);not null;default:0"`
	Notes          *string         `gorm:"column:notes;type:varchar(500)"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
