package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// GiftCard is a discounted card bought from a retailer. RemainingBalance and
// Status are projections over the card's usage rows.
type GiftCard struct {
	ID               int64                `gorm:"column:id;primaryKey;autoIncrement"`
	RetailerID       int64                `gorm:"column:retailer_id;not null"`
	SKU              string               `gorm:"column:sku;type:varchar(32);not null;uniqueIndex"`
	CardNumber       string               `gorm:"column:card_number;type:varchar(128);not null"`
	CardPin          *string              `gorm:"column:card_pin;type:varchar(64)"`
	AcquisitionCost  decimal.Decimal      `gorm:"column:acquisition_cost;type:numeric(10,2);not null"`
	FaceValue        decimal.Decimal      `gorm:"column:face_value;type:numeric(10,2);not null"`
	RemainingBalance decimal.Decimal      `gorm:"column:remaining_balance;type:numeric(10,2);not null"`
	Status           enums.GiftCardStatus `gorm:"column:status;type:varchar(8);not null"`
	PurchaseDate     *time.Time           `gorm:"column:purchase_date;type:date"`
	Notes            *string              `gorm:"column:notes;type:varchar(500)"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
