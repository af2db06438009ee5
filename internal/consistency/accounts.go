package consistency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// AccountAmount checks the sign of a transaction amount. Amounts are signed from
// the account balance's point of view: deposits add, withdrawals subtract.
func AccountAmount(related enums.AccountRelatedType, amount decimal.Decimal) error {
	if err := Cents("amount", amount); err != nil {
		return err
	}
	details := map[string]any{"related_type": related, "amount": amount.String()}
	switch {
	case amount.IsZero():
		return pkgerrors.Violation(RuleAccountAmountSign, "transaction amount cannot be zero").WithDetails(details)
	case related == enums.AccountRelatedTypeDeposit && amount.IsNegative():
		return pkgerrors.Violation(RuleAccountAmountSign, "deposit amount must be positive").WithDetails(details)
	case related == enums.AccountRelatedTypeWithdrawal && amount.IsPositive():
		return pkgerrors.Violation(RuleAccountAmountSign, "withdrawal amount must be negative").WithDetails(details)
	}
	return nil
}

// AccountBalance checks the balance an accepted transaction would produce. For
// credit cards the balance is the outstanding debt and may not pass the limit.
func AccountBalance(accountType enums.AccountType, balance decimal.Decimal, limit decimal.NullDecimal) error {
	if balance.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "account balance cannot go negative").
			WithRule(RuleAccountBalanceNonNegative).
			WithDetails(map[string]any{"balance": balance.String()})
	}
	if accountType == enums.AccountTypeCreditCard && limit.Valid && balance.GreaterThan(limit.Decimal) {
		return pkgerrors.New(pkgerrors.CodeCreditLimitExceeded, fmt.Sprintf("balance %s would exceed credit limit %s", balance.StringFixed(2), limit.Decimal.StringFixed(2))).
			WithRule(RuleAccountCreditLimit).
			WithDetails(map[string]any{"balance": balance.String(), "credit_limit": limit.Decimal.String()})
	}
	return nil
}

// CreditLimit validates a configured limit.
func CreditLimit(accountType enums.AccountType, limit decimal.NullDecimal) error {
	if !limit.Valid {
		return nil
	}
	if accountType != enums.AccountTypeCreditCard {
		return pkgerrors.Violation(RuleFieldInvalid, "only credit card accounts carry a credit limit").
			WithDetails(map[string]any{"field": "credit_limit"})
	}
	return NonNegative(RuleAccountCreditLimit, "credit_limit", limit.Decimal)
}
