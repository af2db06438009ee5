package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// ItemDTO exposes an inventory item with its cached projection.
type ItemDTO struct {
	ID             int64           `json:"id"`
	ItemName       string          `json:"item_name"`
	SKU            *string         `json:"sku,omitempty"`
	UPC            *string         `json:"upc,omitempty"`
	QuantityOnHand int             `json:"quantity_on_hand"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// MovementDTO is one entry of an item's movement history.
type MovementDTO struct {
	ID             int64                     `json:"id"`
	ItemID         int64                     `json:"inventory_item_id"`
	SourceType     enums.InventorySourceType `json:"source_type"`
	SourceID       *int64                    `json:"source_id,omitempty"`
	OrderItemID    *int64                    `json:"order_item_id,omitempty"`
	QuantityChange int                       `json:"quantity_change"`
	CostChange     decimal.Decimal           `json:"cost_change"`
	MovementDate   time.Time                 `json:"movement_date"`
	Notes          *string                   `json:"notes,omitempty"`
}

// CreateItemInput holds creation-time data for an item. A positive
// InitialQuantity is booked as an adjustment movement.
type CreateItemInput struct {
	ItemName        string          `json:"item_name" validate:"required,max=255"`
	SKU             *string         `json:"sku" validate:"omitempty,max=64"`
	UPC             *string         `json:"upc" validate:"omitempty,max=64"`
	Notes           *string         `json:"notes" validate:"omitempty,max=500"`
	InitialQuantity int             `json:"initial_quantity" validate:"min=0"`
	InitialCost     decimal.Decimal `json:"initial_cost"`
}

// UpdateItemInput captures the descriptive item fields.
type UpdateItemInput struct {
	ItemName *string `json:"item_name" validate:"omitempty,min=1,max=255"`
	SKU      *string `json:"sku" validate:"omitempty,max=64"`
	UPC      *string `json:"upc" validate:"omitempty,max=64"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// AdjustInput is a manual correction to quantity and/or cost.
type AdjustInput struct {
	QuantityChange int             `json:"quantity_change"`
	CostChange     decimal.Decimal `json:"cost_change"`
	Notes          *string         `json:"notes" validate:"omitempty,max=500"`
	MovementDate   *time.Time      `json:"movement_date"`
}

// FromModel maps the persisted item into a DTO.
func FromModel(m *models.InventoryItem) *ItemDTO {
	if m == nil {
		return nil
	}
	return &ItemDTO{
		ID:             m.ID,
		ItemName:       m.ItemName,
		SKU:            m.SKU,
		UPC:            m.UPC,
		QuantityOnHand: m.QuantityOnHand,
		AverageCost:    m.AverageCost,
		TotalCost:      m.TotalCost,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// MovementFromModel maps a movement row into a DTO.
func MovementFromModel(m *models.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:             m.ID,
		ItemID:         m.InventoryItemID,
		SourceType:     m.SourceType,
		SourceID:       m.SourceID,
		OrderItemID:    m.OrderItemID,
		QuantityChange: m.QuantityChange,
		CostChange:     m.CostChange,
		MovementDate:   m.MovementDate,
		Notes:          m.Notes,
	}
}
