package accounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// AccountDTO exposes an account in API responses.
type AccountDTO struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Type        enums.AccountType   `json:"type"`
	Balance     decimal.Decimal     `json:"balance"`
	CreditLimit decimal.NullDecimal `json:"credit_limit"`
	Notes       *string             `json:"notes,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TransactionDTO is one signed balance change.
type TransactionDTO struct {
	ID              int64                    `json:"id"`
	AccountID       int64                    `json:"account_id"`
	RelatedType     enums.AccountRelatedType `json:"related_type"`
	RelatedID       *int64                   `json:"related_id,omitempty"`
	Amount          decimal.Decimal          `json:"amount"`
	Description     *string                  `json:"description,omitempty"`
	TransactionDate time.Time                `json:"transaction_date"`
}

// CreateAccountInput holds creation-time data for an account.
type CreateAccountInput struct {
	Name        string              `json:"name" validate:"required,max=100"`
	Type        enums.AccountType   `json:"type" validate:"required,oneof=credit_card bank gift_card_pool"`
	CreditLimit decimal.NullDecimal `json:"credit_limit"`
	Notes       *string             `json:"notes" validate:"omitempty,max=500"`
}

// UpdateAccountInput captures the mutable account fields. Set ClearCreditLimit
// to remove a limit.
type UpdateAccountInput struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=100"`
	CreditLimit      *decimal.Decimal `json:"credit_limit"`
	ClearCreditLimit bool             `json:"clear_credit_limit"`
	Notes            *string          `json:"notes" validate:"omitempty,max=500"`
}

// RecordTransactionInput describes a transaction to post. RelatedID is required
// for order and sale links and must be empty for deposits and withdrawals.
type RecordTransactionInput struct {
	RelatedType     enums.AccountRelatedType `json:"related_type" validate:"required,oneof=order sale deposit withdrawal"`
	RelatedID       *int64                   `json:"related_id"`
	Amount          decimal.Decimal          `json:"amount"`
	Description     *string                  `json:"description" validate:"omitempty,max=255"`
	TransactionDate *time.Time               `json:"transaction_date"`
}

// FromModel maps the persisted account into a DTO.
func FromModel(m *models.Account) *AccountDTO {
	if m == nil {
		return nil
	}
	return &AccountDTO{
		ID:          m.ID,
		Name:        m.Name,
		Type:        m.Type,
		Balance:     m.Balance,
		CreditLimit: m.CreditLimit,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// TransactionFromModel maps a transaction row into a DTO.
func TransactionFromModel(m *models.AccountTransaction) TransactionDTO {
	return TransactionDTO{
		ID:              m.ID,
		AccountID:       m.AccountID,
		RelatedType:     m.RelatedType,
		RelatedID:       m.RelatedID,
		Amount:          m.Amount,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
	}
}
