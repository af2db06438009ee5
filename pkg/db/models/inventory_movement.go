package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// InventoryMovement is an immutable signed change to an item's stock and cost.
// SourceID is a soft link whose target depends on SourceType.
type InventoryMovement struct {
	ID              int64                     `gorm:"column:id;primaryKey;autoIncrement"`
	InventoryItemID int64                     `gorm:"column:inventory_item_id;not null"`
	SourceType      enums.InventorySourceType `gorm:"column:source_type;type:varchar(10);not null"`
	SourceID        *int64                    `gorm:"column:source_id"`
	OrderItemID     *int64                    `gorm:"column:order_item_id"`
	QuantityChange  int                       `gorm:"column:quantity_change;not null"`
	CostChange      decimal.Decimal           `gorm:"column:cost_change;type:numeric(10,2);not null"`
	MovementDate    time.Time                 `gorm:"column:movement_date;not null"`
	Notes           *string                   `gorm:"column:notes;type:varchar(500)"`
}
