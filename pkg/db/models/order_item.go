package models

import "github.com/shopspring/decimal"

// OrderItem is one line of an order.
type OrderItem struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    int64           `gorm:"column:order_id;not null"`
	ItemName   string          `gorm:"column:item_name;type:varchar(255);not null"`
	SKU        *string         `gorm:"column:sku;type:varchar(100)"`
	UPC        *string         `gorm:"column:upc;type:varchar(64)"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(10,2);not null"`
}
