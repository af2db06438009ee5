package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale aggregates its sale items. Totals and profit are derived from the lines.
type Sale struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Buyer      *string         `gorm:"column:buyer;type:varchar(255)"`
	SaleDate   time.Time       `gorm:"column:sale_date;type:date;not null"`
	TotalValue decimal.Decimal `gorm:"column:total_value;type:numeric(10,2);not null"`
	TotalCost  decimal.Decimal `gorm:"column:total_cost;type:numeric(10,2);not null"`
	Profit     decimal.Decimal `gorm:"column:profit;type:numeric(10,2);not null"`
	Notes      *string         `gorm:"column:notes;type:varchar(500)"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
