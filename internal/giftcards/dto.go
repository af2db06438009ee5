package giftcards

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// GiftCardDTO exposes a gift card in API responses.
type GiftCardDTO struct {
	ID               int64                `json:"id"`
	RetailerID       int64                `json:"retailer_id"`
	SKU              string               `json:"sku"`
	CardNumber       string               `json:"card_number"`
	CardPin          *string              `json:"card_pin,omitempty"`
	AcquisitionCost  decimal.Decimal      `json:"acquisition_cost"`
	FaceValue        decimal.Decimal      `json:"face_value"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
	Status           enums.GiftCardStatus `json:"status"`
	PurchaseDate     *time.Time           `json:"purchase_date,omitempty"`
	Notes            *string              `json:"notes,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// UsageDTO is one spend recorded against a card.
type UsageDTO struct {
	ID         int64           `json:"id"`
	GiftCardID int64           `json:"gift_card_id"`
	OrderID    *int64          `json:"order_id,omitempty"`
	AmountUsed decimal.Decimal `json:"amount_used"`
	UsageDate  time.Time       `json:"usage_date"`
}

// CreateGiftCardInput holds creation-time data for a gift card. SKU is
// generated when empty. RemainingBalance defaults to the face value; a lower
// opening balance is recorded as a usage row without an order.
type CreateGiftCardInput struct {
	RetailerCode     string           `json:"retailer_code" validate:"required,max=16"`
	SKU              string           `json:"sku" validate:"omitempty,max=32"`
	CardNumber       string           `json:"card_number" validate:"required,max=128"`
	CardPin          *string          `json:"card_pin" validate:"omitempty,max=64"`
	AcquisitionCost  decimal.Decimal  `json:"acquisition_cost"`
	FaceValue        decimal.Decimal  `json:"face_value"`
	RemainingBalance *decimal.Decimal `json:"remaining_balance"`
	PurchaseDate     *time.Time       `json:"purchase_date"`
	Notes            *string          `json:"notes" validate:"omitempty,max=500"`
}

// UpdateGiftCardInput captures the descriptive fields of a card. Face value and
// balance are owned by the usage history and cannot be edited.
type UpdateGiftCardInput struct {
	CardNumber      *string          `json:"card_number" validate:"omitempty,min=1,max=128"`
	CardPin         *string          `json:"card_pin" validate:"omitempty,max=64"`
	AcquisitionCost *decimal.Decimal `json:"acquisition_cost"`
	PurchaseDate    *time.Time       `json:"purchase_date"`
	Notes           *string          `json:"notes" validate:"omitempty,max=500"`
}

// ListFilter narrows List. An empty or "ALL" retailer code means every retailer.
type ListFilter struct {
	RetailerCode string
	Status       *enums.GiftCardStatus
}

// FromModel maps the persisted card into a DTO.
func FromModel(m *models.GiftCard) *GiftCardDTO {
	if m == nil {
		return nil
	}
	return &GiftCardDTO{
		ID:               m.ID,
		RetailerID:       m.RetailerID,
		SKU:              m.SKU,
		CardNumber:       m.CardNumber,
		CardPin:          m.CardPin,
		AcquisitionCost:  m.AcquisitionCost,
		FaceValue:        m.FaceValue,
		RemainingBalance: m.RemainingBalance,
		Status:           m.Status,
		PurchaseDate:     m.PurchaseDate,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// UsageFromModel maps a usage row into a DTO.
func UsageFromModel(m *models.GiftCardUsage) UsageDTO {
	return UsageDTO{
		ID:         m.ID,
		GiftCardID: m.GiftCardID,
		OrderID:    m.OrderID,
		AmountUsed: m.AmountUsed,
		UsageDate:  m.UsageDate,
	}
}
