package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiftCardUsage is an immutable spend event against a gift card. OrderID is
// cleared when the order is deleted; the row itself stays.
type GiftCardUsage struct {
	ID         int64           `gorm:"column:id;primaryKey;autoIncrement"`
	GiftCardID int64           `gorm:"column:gift_card_id;not null"`
	OrderID    *int64          `gorm:"column:order_id"`
	AmountUsed decimal.Decimal `gorm:"column:amount_used;type:numeric(10,2);not null"`
	UsageDate  time.Time       `gorm:"column:usage_date;type:date;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (GiftCardUsage) TableName() string {
	return "gift_card_usage"
}
