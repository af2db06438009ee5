package enums

import "fmt"

// InventorySourceType describes what produced an inventory movement.
type InventorySourceType string

const (
	InventorySourceTypeOrder      InventorySourceType = "order"
	InventorySourceTypeSale       InventorySourceType = "sale"
	InventorySourceTypeAdjustment InventorySourceType = "adjustment"
)

var validInventorySourceTypes = []InventorySourceType{
	InventorySourceTypeOrder,
	InventorySourceTypeSale,
	InventorySourceTypeAdjustment,
}

// String implements fmt.Stringer.
func (i InventorySourceType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventorySourceType.
func (i InventorySourceType) IsValid() bool {
	for _, candidate := range validInventorySourceTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventorySourceType converts raw input into a InventorySourceType.
func ParseInventorySourceType(value string) (InventorySourceType, error) {
	for _, candidate := range validInventorySourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory source type %q", value)
}
