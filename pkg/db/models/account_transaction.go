package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// AccountTransaction is an immutable signed change to an account balance.
// RelatedID is a soft link whose target depends on RelatedType.
type AccountTransaction struct {
	ID              int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID       int64                    `gorm:"column:account_id;not null"`
	RelatedType     enums.AccountRelatedType `gorm:"column:related_type;type:varchar(10);not null"`
	RelatedID       *int64                   `gorm:"column:related_id"`
	Amount          decimal.Decimal          `gorm:"column:amount;type:numeric(10,2);not null"`
	Description     *string                  `gorm:"column:description;type:varchar(255)"`
	TransactionDate time.Time                `gorm:"column:transaction_date;not null"`
}
