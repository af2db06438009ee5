package models

import "github.com/shopspring/decimal"

// SaleItem is one sold line. InventoryItemID is cleared when the item is deleted
// so the sale history survives.
type SaleItem struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	SaleID          int64           `gorm:"column:sale_id;not null"`
	InventoryItemID *int64          `gorm:"column:inventory_item_id"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(10,4);not null"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(10,2);not null"`
	LineCost        decimal.Decimal `gorm:"column:line_cost;type:numeric(10,2);not null"`
}
