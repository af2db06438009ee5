package query

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/analytics/types"
	"github.com/angelmondragon/cardledger/internal/retailers"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/money"
)

const (
	giftCardSummarySelect = `
COUNT(gc.id) AS count,
COALESCE(SUM(gc.face_value), 0) AS face_value,
COALESCE(SUM(gc.remaining_balance), 0) AS remaining_balance,
COALESCE(SUM(gc.acquisition_cost), 0) AS acquisition_cost`

	retailerValueSelect = `
r.code AS retailer_code,
gc.status AS status,
COUNT(gc.id) AS count,
COALESCE(SUM(gc.face_value), 0) AS face_value,
COALESCE(SUM(gc.remaining_balance), 0) AS remaining_balance`

	inventorySummarySelect = `
COUNT(id) AS items,
COALESCE(SUM(quantity_on_hand), 0) AS total_units,
COALESCE(SUM(total_cost), 0) AS total_cost`

	salesSummarySelect = `
COUNT(id) AS count,
COALESCE(SUM(total_value), 0) AS total_value,
COALESCE(SUM(total_cost), 0) AS total_cost,
COALESCE(SUM(profit), 0) AS profit`

	accountBalancesSelect = `
type,
COUNT(id) AS count,
COALESCE(SUM(balance), 0) AS balance`
)

// LedgerService runs the read-only aggregate queries. Reads are not isolated
// from concurrent writers.
type LedgerService interface {
	GiftCardSummary(ctx context.Context, retailerCode string) (types.GiftCardSummary, error)
	GiftCardValueByRetailer(ctx context.Context) ([]types.RetailerValue, error)
	InventorySummary(ctx context.Context) (types.InventorySummary, error)
	OrderStatusSummary(ctx context.Context, q types.OrderStatusQuery) (types.OrderStatusSummary, error)
	SalesSummary(ctx context.Context, q types.SalesQuery) (types.SalesSummary, error)
	AccountBalances(ctx context.Context) ([]types.AccountTypeBalance, error)
}

type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService binds the aggregate queries to a database handle.
func NewLedgerService(db *gorm.DB) (LedgerService, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &ledgerService{db: db}, nil
}

func (s *ledgerService) GiftCardSummary(ctx context.Context, retailerCode string) (types.GiftCardSummary, error) {
	var out types.GiftCardSummary
	q := s.db.WithContext(ctx).Table("gift_cards AS gc").Select(giftCardSummarySelect)
	if code := retailerFilter(retailerCode); code != "" {
		q = q.Joins("JOIN retailers r ON r.id = gc.retailer_id").Where("r.code = ?", code)
	}
	if err := q.Scan(&out).Error; err != nil {
		return out, pkgerrors.Storage(err, "gift card summary")
	}
	out.FaceValue = money.Round2(out.FaceValue)
	out.RemainingBalance = money.Round2(out.RemainingBalance)
	out.AcquisitionCost = money.Round2(out.AcquisitionCost)
	return out, nil
}

func (s *ledgerService) GiftCardValueByRetailer(ctx context.Context) ([]types.RetailerValue, error) {
	var rows []types.RetailerValue
	err := s.db.WithContext(ctx).Table("gift_cards AS gc").
		Select(retailerValueSelect).
		Joins("JOIN retailers r ON r.id = gc.retailer_id").
		Group("r.code, gc.status").
		Order("r.code ASC, gc.status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Storage(err, "gift card value by retailer")
	}
	for i := range rows {
		rows[i].FaceValue = money.Round2(rows[i].FaceValue)
		rows[i].RemainingBalance = money.Round2(rows[i].RemainingBalance)
	}
	return rows, nil
}

func (s *ledgerService) InventorySummary(ctx context.Context) (types.InventorySummary, error) {
	var out types.InventorySummary
	if err := s.db.WithContext(ctx).Table("inventory_items").Select(inventorySummarySelect).Scan(&out).Error; err != nil {
		return out, pkgerrors.Storage(err, "inventory summary")
	}
	out.TotalCost = money.Round2(out.TotalCost)
	return out, nil
}

func (s *ledgerService) OrderStatusSummary(ctx context.Context, q types.OrderStatusQuery) (types.OrderStatusSummary, error) {
	var out types.OrderStatusSummary
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	tx := s.db.WithContext(ctx).Table("orders AS o").Select("o.status AS status, COUNT(o.id) AS count")
	if code := retailerFilter(q.RetailerCode); code != "" {
		tx = tx.Joins("JOIN retailers r ON r.id = o.retailer_id").Where("r.code = ?", code)
	}
	if q.Start != nil {
		tx = tx.Where("o.order_date >= ?", *q.Start)
	}
	if err := tx.Group("o.status").Scan(&rows).Error; err != nil {
		return out, pkgerrors.Storage(err, "order status summary")
	}
	for _, row := range rows {
		switch row.Status {
		case enums.OrderStatusOrdered:
			out.Ordered = row.Count
		case enums.OrderStatusShipped:
			out.Shipped = row.Count
		case enums.OrderStatusCancelled:
			out.Cancelled = row.Count
		case enums.OrderStatusDelivered:
			out.Delivered = row.Count
		}
	}
	return out, nil
}

func (s *ledgerService) SalesSummary(ctx context.Context, q types.SalesQuery) (types.SalesSummary, error) {
	var out types.SalesSummary
	tx := s.db.WithContext(ctx).Table("sales").Select(salesSummarySelect)
	if q.Start != nil {
		tx = tx.Where("sale_date >= ?", *q.Start)
	}
	if q.End != nil {
		tx = tx.Where("sale_date <= ?", *q.End)
	}
	if err := tx.Scan(&out).Error; err != nil {
		return out, pkgerrors.Storage(err, "sales summary")
	}
	out.TotalValue = money.Round2(out.TotalValue)
	out.TotalCost = money.Round2(out.TotalCost)
	out.Profit = money.Round2(out.Profit)
	return out, nil
}

func (s *ledgerService) AccountBalances(ctx context.Context) ([]types.AccountTypeBalance, error) {
	var rows []types.AccountTypeBalance
	err := s.db.WithContext(ctx).Table("accounts").
		Select(accountBalancesSelect).
		Group("type").
		Order("type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Storage(err, "account balances")
	}
	for i := range rows {
		rows[i].Balance = money.Round2(rows[i].Balance)
	}
	return rows, nil
}

func retailerFilter(code string) string {
	code = retailers.NormalizeCode(code)
	if code == "ALL" {
		return ""
	}
	return code
}
