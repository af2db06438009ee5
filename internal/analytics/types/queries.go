package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cardledger/pkg/enums"
)

// OrderStatusQuery narrows the order status counts. An empty or "ALL"
// retailer code matches every retailer.
type OrderStatusQuery struct {
	RetailerCode string
	Start        *time.Time
}

// SalesQuery bounds sale dates to [Start, End]; nil bounds are open.
type SalesQuery struct {
	Start *time.Time
	End   *time.Time
}

// DashboardRequest asks for every report at once for a retailer code and a
// timeframe such as 7d or all.
type DashboardRequest struct {
	RetailerCode string
	Timeframe    string
	Now          time.Time
}

// GiftCardSummary totals the cards in scope.
type GiftCardSummary struct {
	Count            int64           `json:"count"`
	FaceValue        decimal.Decimal `json:"face_value"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	AcquisitionCost  decimal.Decimal `json:"acquisition_cost"`
}

// RetailerValue is the gift card value held with one retailer in one status.
type RetailerValue struct {
	RetailerCode     string               `json:"retailer_code"`
	Status           enums.GiftCardStatus `json:"status"`
	Count            int64                `json:"count"`
	FaceValue        decimal.Decimal      `json:"face_value"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
}

// InventorySummary totals stock on hand.
type InventorySummary struct {
	Items      int64           `json:"items"`
	TotalUnits int64           `json:"total_units"`
	TotalCost  decimal.Decimal `json:"total_cost"`
}

// OrderStatusSummary counts orders per status.
type OrderStatusSummary struct {
	Ordered   int64 `json:"ordered"`
	Shipped   int64 `json:"shipped"`
	Cancelled int64 `json:"cancelled"`
	Delivered int64 `json:"delivered"`
}

// SalesSummary totals sales in a window.
type SalesSummary struct {
	Count      int64           `json:"count"`
	TotalValue decimal.Decimal `json:"total_value"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Profit     decimal.Decimal `json:"profit"`
}

// AccountTypeBalance sums balances for one account type.
type AccountTypeBalance struct {
	Type    enums.AccountType `json:"type"`
	Count   int64             `json:"count"`
	Balance decimal.Decimal   `json:"balance"`
}

// Dashboard bundles the reports shown together.
type Dashboard struct {
	Start           *time.Time           `json:"start,omitempty"`
	GiftCards       GiftCardSummary      `json:"gift_cards"`
	GiftCardValue   []RetailerValue      `json:"gift_card_value"`
	Inventory       InventorySummary     `json:"inventory"`
	Orders          OrderStatusSummary   `json:"orders"`
	Sales           SalesSummary         `json:"sales"`
	AccountBalances []AccountTypeBalance `json:"account_balances"`
}
