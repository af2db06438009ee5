package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/db/models"
)

// SaleDTO exposes a sale with its derived totals.
type SaleDTO struct {
	ID         int64           `json:"id"`
	Buyer      *string         `json:"buyer,omitempty"`
	SaleDate   time.Time       `json:"sale_date"`
	TotalValue decimal.Decimal `json:"total_value"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Profit     decimal.Decimal `json:"profit"`
	Notes      *string         `json:"notes,omitempty"`
	Lines      []LineDTO       `json:"lines,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// LineDTO is one sold line. UnitCost is the moving average at the time of sale.
type LineDTO struct {
	ID              int64           `json:"id"`
	InventoryItemID *int64          `json:"inventory_item_id,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	LineTotal       decimal.Decimal `json:"line_total"`
	LineCost        decimal.Decimal `json:"line_cost"`
}

// LineInput sells quantity units of an inventory item at unit price.
type LineInput struct {
	InventoryItemID int64           `json:"inventory_item_id" validate:"required"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

// CreateSaleInput holds a new sale. When ProceedsAccountID is set the sale
// value is posted to that account.
type CreateSaleInput struct {
	Buyer             *string     `json:"buyer" validate:"omitempty,max=255"`
	SaleDate          time.Time   `json:"sale_date" validate:"required"`
	Notes             *string     `json:"notes" validate:"omitempty,max=500"`
	ProceedsAccountID *int64      `json:"proceeds_account_id"`
	Lines             []LineInput `json:"lines" validate:"dive"`
}

// UpdateSaleInput edits the header. A non-nil Lines replaces every line; the
// old lines are reversed back into stock first.
type UpdateSaleInput struct {
	Buyer    *string     `json:"buyer" validate:"omitempty,max=255"`
	SaleDate *time.Time  `json:"sale_date"`
	Notes    *string     `json:"notes" validate:"omitempty,max=500"`
	Lines    []LineInput `json:"lines" validate:"omitempty,dive"`
}

// ListFilter narrows List to sale dates within [From, To].
type ListFilter struct {
	From *time.Time
	To   *time.Time
}

// FromModel maps a sale and its lines into a DTO.
func FromModel(m *models.Sale, lines []models.SaleItem) *SaleDTO {
	if m == nil {
		return nil
	}
	dto := &SaleDTO{
		ID:         m.ID,
		Buyer:      m.Buyer,
		SaleDate:   m.SaleDate,
		TotalValue: m.TotalValue,
		TotalCost:  m.TotalCost,
		Profit:     m.Profit,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	for i := range lines {
		line := lines[i]
		dto.Lines = append(dto.Lines, LineDTO{
			ID:              line.ID,
			InventoryItemID: line.InventoryItemID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			UnitCost:        line.UnitCost,
			LineTotal:       line.LineTotal,
			LineCost:        line.LineCost,
		})
	}
	return dto
}
