package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Account is a financial account. Balance is the sum of its transactions; for
// credit cards it is the outstanding debt.
type Account struct {
	ID          int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string              `gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	Type        enums.AccountType   `gorm:"column:type;type:varchar(14);not null"`
	Balance     decimal.Decimal     `gorm:"column:balance;type:numeric(10,2);not null;default:0"`
	CreditLimit decimal.NullDecimal `gorm:"column:credit_limit;type:numeric(10,2)"`
	Notes       *string             `gorm:"column:notes;type:varchar(500)"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
