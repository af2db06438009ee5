package enums

import "fmt"

// AccountType classifies financial accounts.
type AccountType string

const (
	AccountTypeCreditCard   AccountType = "credit_card"
	AccountTypeBank         AccountType = "bank"
	AccountTypeGiftCardPool AccountType = "gift_card_pool"
)

var validAccountTypes = []AccountType{
	AccountTypeCreditCard,
	AccountTypeBank,
	AccountTypeGiftCardPool,
}

// String implements fmt.Stringer.
func (a AccountType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccountType.
func (a AccountType) IsValid() bool {
	for _, candidate := range validAccountTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccountType converts raw input into a AccountType.
func ParseAccountType(value string) (AccountType, error) {
	for _, candidate := range validAccountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account type %q", value)
}
