package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// OrderDTO exposes an order header in API responses.
type OrderDTO struct {
	ID              int64               `json:"id"`
	RetailerID      int64               `json:"retailer_id"`
	OrderNumber     string              `json:"order_number"`
	OrderDate       time.Time           `json:"order_date"`
	OrderEmail      *string             `json:"order_email,omitempty"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Tax             decimal.Decimal     `json:"tax"`
	Shipping        decimal.Decimal     `json:"shipping"`
	TotalCost       decimal.Decimal     `json:"total_cost"`
	CreditCardSpend decimal.Decimal     `json:"credit_card_spend"`
	GiftCardSpend   decimal.Decimal     `json:"gift_card_spend"`
	Status          enums.OrderStatus   `json:"status"`
	ReceiptPath     *string             `json:"receipt_path,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ItemDTO is one purchased line.
type ItemDTO struct {
	ID         int64           `json:"id"`
	ItemName   string          `json:"item_name"`
	SKU        *string         `json:"sku,omitempty"`
	UPC        *string         `json:"upc,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// AllocationDTO is gift card spend applied to the order.
type AllocationDTO struct {
	UsageID    int64           `json:"usage_id"`
	GiftCardID int64           `json:"gift_card_id"`
	Amount     decimal.Decimal `json:"amount"`
	UsageDate  time.Time       `json:"usage_date"`
}

// AttachmentDTO is a file linked to the order.
type AttachmentDTO struct {
	ID        int64     `json:"id"`
	FilePath  string    `json:"file_path"`
	Label     *string   `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDetail is the order with its lines, allocations and attachments.
type OrderDetail struct {
	OrderDTO
	Items       []ItemDTO       `json:"items"`
	Allocations []AllocationDTO `json:"allocations"`
	Attachments []AttachmentDTO `json:"attachments"`
}

// ItemInput describes a purchased line. TotalPrice defaults to
// quantity * unit price.
type ItemInput struct {
	ItemName   string           `json:"item_name" validate:"required,max=255"`
	SKU        *string          `json:"sku" validate:"omitempty,max=100"`
	UPC        *string          `json:"upc" validate:"omitempty,max=64"`
	Quantity   int              `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unit_price"`
	TotalPrice *decimal.Decimal `json:"total_price"`
}

// Allocation deducts an amount from a gift card toward the order.
type Allocation struct {
	GiftCardID int64           `json:"gift_card_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// CreateOrderInput holds creation-time data for an order. TotalCost defaults to
// subtotal + tax + shipping. Gift card spend is always the sum of Allocations.
// When CreditCardAccountID is set, CreditCardSpend is charged to that account.
type CreateOrderInput struct {
	RetailerCode        string              `json:"retailer_code" validate:"required,max=16"`
	OrderNumber         string              `json:"order_number" validate:"required,max=100"`
	OrderDate           time.Time           `json:"order_date" validate:"required"`
	OrderEmail          *string             `json:"order_email" validate:"omitempty,email,max=200"`
	PaymentMethod       enums.PaymentMethod `json:"payment_method" validate:"required,oneof=gift_card credit_card mixed"`
	Subtotal            decimal.Decimal     `json:"subtotal"`
	Tax                 decimal.Decimal     `json:"tax"`
	Shipping            decimal.Decimal     `json:"shipping"`
	TotalCost           *decimal.Decimal    `json:"total_cost"`
	CreditCardSpend     decimal.Decimal     `json:"credit_card_spend"`
	CreditCardAccountID *int64              `json:"credit_card_account_id"`
	Status              enums.OrderStatus   `json:"status" validate:"omitempty,oneof=ordered shipped cancelled delivered"`
	ReceiptPath         *string             `json:"receipt_path" validate:"omitempty,max=500"`
	Items               []ItemInput         `json:"items" validate:"dive"`
	Allocations         []Allocation        `json:"allocations" validate:"dive"`
}

// UpdateOrderInput captures the editable header fields.
type UpdateOrderInput struct {
	OrderNumber     *string              `json:"order_number" validate:"omitempty,min=1,max=100"`
	OrderDate       *time.Time           `json:"order_date"`
	OrderEmail      *string              `json:"order_email" validate:"omitempty,email,max=200"`
	PaymentMethod   *enums.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=gift_card credit_card mixed"`
	Subtotal        *decimal.Decimal     `json:"subtotal"`
	Tax             *decimal.Decimal     `json:"tax"`
	Shipping        *decimal.Decimal     `json:"shipping"`
	TotalCost       *decimal.Decimal     `json:"total_cost"`
	CreditCardSpend *decimal.Decimal     `json:"credit_card_spend"`
	ReceiptPath     *string              `json:"receipt_path" validate:"omitempty,max=500"`
}

// AttachmentInput links a file to an order.
type AttachmentInput struct {
	FilePath string  `json:"file_path" validate:"required,max=500"`
	Label    *string `json:"label" validate:"omitempty,max=200"`
}

// FromModel maps the persisted order into a DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	return &OrderDTO{
		ID:              m.ID,
		RetailerID:      m.RetailerID,
		OrderNumber:     m.OrderNumber,
		OrderDate:       m.OrderDate,
		OrderEmail:      m.OrderEmail,
		PaymentMethod:   m.PaymentMethod,
		Subtotal:        m.Subtotal,
		Tax:             m.Tax,
		Shipping:        m.Shipping,
		TotalCost:       m.TotalCost,
		CreditCardSpend: m.CreditCardSpend,
		GiftCardSpend:   m.GiftCardSpend,
		Status:          m.Status,
		ReceiptPath:     m.ReceiptPath,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func itemFromModel(m *models.OrderItem) ItemDTO {
	return ItemDTO{
		ID:         m.ID,
		ItemName:   m.ItemName,
		SKU:        m.SKU,
		UPC:        m.UPC,
		Quantity:   m.Quantity,
		UnitPrice:  m.UnitPrice,
		TotalPrice: m.TotalPrice,
	}
}

func allocationFromModel(m *models.GiftCardUsage) AllocationDTO {
	return AllocationDTO{
		UsageID:    m.ID,
		GiftCardID: m.GiftCardID,
		Amount:     m.AmountUsed,
		UsageDate:  m.UsageDate,
	}
}

func attachmentFromModel(m *models.Attachment) AttachmentDTO {
	return AttachmentDTO{
		ID:        m.ID,
		FilePath:  m.FilePath,
		Label:     m.Label,
		CreatedAt: m.CreatedAt,
	}
}
