package enums

import "fmt"

// AccountRelatedType describes what an account transaction is linked to.
type AccountRelatedType string

const (
	AccountRelatedTypeOrder      AccountRelatedType = "order"
	AccountRelatedTypeSale       AccountRelatedType = "sale"
	AccountRelatedTypeDeposit    AccountRelatedType = "deposit"
	AccountRelatedTypeWithdrawal AccountRelatedType = "withdrawal"
)

var validAccountRelatedTypes = []AccountRelatedType{
	AccountRelatedTypeOrder,
	AccountRelatedTypeSale,
	AccountRelatedTypeDeposit,
	AccountRelatedTypeWithdrawal,
}

// String implements fmt.Stringer.
func (a AccountRelatedType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccountRelatedType.
func (a AccountRelatedType) IsValid() bool {
	for _, candidate := range validAccountRelatedTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccountRelatedType converts raw input into a AccountRelatedType.
func ParseAccountRelatedType(value string) (AccountRelatedType, error) {
	for _, candidate := range validAccountRelatedTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account related type %q", value)
}
