package enums

import "fmt"

// GiftCardStatus is the lifecycle state stored in gift_cards.status.
type GiftCardStatus string

const (
	GiftCardStatusActive   GiftCardStatus = "active"
	GiftCardStatusUsed     GiftCardStatus = "used"
	GiftCardStatusVoid     GiftCardStatus = "void"
	GiftCardStatusArchived GiftCardStatus = "archived"
)

var validGiftCardStatuses = []GiftCardStatus{
	GiftCardStatusActive,
	GiftCardStatusUsed,
	GiftCardStatusVoid,
	GiftCardStatusArchived,
}

// String implements fmt.Stringer.
func (g GiftCardStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GiftCardStatus.
func (g GiftCardStatus) IsValid() bool {
	for _, candidate := range validGiftCardStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGiftCardStatus converts raw input into a GiftCardStatus.
func ParseGiftCardStatus(value string) (GiftCardStatus, error) {
	for _, candidate := range validGiftCardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gift card status %q", value)
}

// IsTerminal reports whether the card was retired manually and can no longer move.
func (g GiftCardStatus) IsTerminal() bool {
	return g == GiftCardStatusVoid || g == GiftCardStatusArchived
}
