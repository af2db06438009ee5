package consistency

// Rule identifiers carried by every validation failure.
const (
	RuleAmountPositive  = "amount.positive"
	RuleAmountPrecision = "amount.precision"
	RuleFieldInvalid    = "field.invalid"

	RuleGiftCardBalanceRange      = "gift_card.balance_range"
	RuleGiftCardUsageExceedsFace  = "gift_card.usage_exceeds_face_value"
	RuleGiftCardInsufficient      = "gift_card.insufficient_balance"
	RuleGiftCardStatusNotUsable   = "gift_card.status_not_usable"
	RuleGiftCardStatusTransition  = "gift_card.status_transition"
	RuleInventoryZeroMovement     = "inventory.zero_movement"
	RuleInventoryCostSign         = "inventory.cost_sign"
	RuleInventoryCostNonNegative  = "inventory.cost_non_negative"
	RuleInventoryResidualCost     = "inventory.residual_cost"
	RuleInventoryQuantityNegative = "inventory.quantity_non_negative"
	RuleAccountBalanceNonNegative = "account.balance_non_negative"
	RuleAccountAmountSign         = "account.amount_sign"
	RuleAccountCreditLimit        = "account.credit_limit"
	RuleOrderStatusTransition     = "order.status_transition"
	RuleOrderTotalMismatch        = "order.total_mismatch"
	RuleOrderPaymentMismatch      = "order.payment_mismatch"
	RuleOrderAmountNonNegative    = "order.amount_non_negative"
	RuleOrderChargePosted         = "order.charge_posted"
	RuleOrderItemTotalMismatch    = "order_item.total_mismatch"
	RuleOrderItemQuantityPositive = "order_item.quantity_positive"
	RuleSaleEmpty                 = "sale.empty"
	RuleSaleQuantityPositive      = "sale.quantity_positive"
	RuleRetailerHasOrders         = "retailer.has_orders"
	RuleSourceNotFound            = "source.not_found"
)
