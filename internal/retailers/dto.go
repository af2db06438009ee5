package retailers

import (
	"strings"
	"time"

	"github.com/angelmondragon/cardledger/pkg/db/models"
)

// RetailerDTO exposes a retailer in API responses.
type RetailerDTO struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	RequiresPin bool      `json:"requires_pin"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRetailerInput holds creation-time data for a retailer.
type CreateRetailerInput struct {
	Code        string  `json:"code" validate:"required,max=16"`
	Name        string  `json:"name" validate:"required,max=100"`
	RequiresPin bool    `json:"requires_pin"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
}

// UpdateRetailerInput captures the mutable retailer fields.
type UpdateRetailerInput struct {
	Code        *string `json:"code" validate:"omitempty,min=1,max=16"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	RequiresPin *bool   `json:"requires_pin"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
}

// NormalizeCode upper-cases and trims a retailer code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (in CreateRetailerInput) toModel() *models.Retailer {
	return &models.Retailer{
		Code:        NormalizeCode(in.Code),
		Name:        strings.TrimSpace(in.Name),
		RequiresPin: in.RequiresPin,
		Notes:       in.Notes,
	}
}

// FromModel maps the persisted retailer into a DTO.
func FromModel(m *models.Retailer) *RetailerDTO {
	if m == nil {
		return nil
	}
	return &RetailerDTO{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		RequiresPin: m.RequiresPin,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
