package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Order is a purchase placed with a retailer.
type Order struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	RetailerID      int64               `gorm:"column:retailer_id;not null"`
	OrderNumber     string              `gorm:"column:order_number;type:varchar(100);not null"`
	OrderDate       time.Time           `gorm:"column:order_date;type:date;not null"`
	OrderEmail      *string             `gorm:"column:order_email;type:varchar(200)"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:varchar(11);not null"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null;default:0"`
	Tax             decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null;default:0"`
	Shipping        decimal.Decimal     `gorm:"column:shipping;type:numeric(10,2);not null;default:0"`
	TotalCost       decimal.Decimal     `gorm:"column:total_cost;type:numeric(10,2);not null"`
	CreditCardSpend decimal.Decimal     `gorm:"column:credit_card_spend;type:numeric(10,2);not null;default:0"`
	GiftCardSpend   decimal.Decimal     `gorm:"column:gift_card_spend;type:numeric(10,2);not null;default:0"`
	Status          enums.OrderStatus   `gorm:"column:status;type:varchar(9);not null"`
	ReceiptPath     *string             `gorm:"column:receipt_path;type:varchar(500)"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
