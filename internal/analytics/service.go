package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/cardledger/internal/analytics/query"
	"github.com/angelmondragon/cardledger/internal/analytics/types"
)

// Service provides the reporting views over the ledger.
type Service interface {
	GiftCardSummary(ctx context.Context, retailerCode string) (types.GiftCardSummary, error)
	GiftCardValueByRetailer(ctx context.Context) ([]types.RetailerValue, error)
	InventorySummary(ctx context.Context) (types.InventorySummary, error)
	OrderStatusSummary(ctx context.Context, q types.OrderStatusQuery) (types.OrderStatusSummary, error)
	SalesSummary(ctx context.Context, q types.SalesQuery) (types.SalesSummary, error)
	AccountBalances(ctx context.Context) ([]types.AccountTypeBalance, error)
	// Dashboard resolves the timeframe and gathers every report.
	Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error)
}

type service struct {
	query.LedgerService
}

// NewService builds an analytics service over the ledger queries.
func NewService(ledger query.LedgerService) (Service, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger query service required")
	}
	return &service{LedgerService: ledger}, nil
}

func (s *service) Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error) {
	tf, err := ParseTimeframe(req.Timeframe)
	if err != nil {
		return nil, err
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	start := tf.Start(now)

	out := &types.Dashboard{Start: start}
	if out.GiftCards, err = s.GiftCardSummary(ctx, req.RetailerCode); err != nil {
		return nil, err
	}
	if out.GiftCardValue, err = s.GiftCardValueByRetailer(ctx); err != nil {
		return nil, err
	}
	if out.Inventory, err = s.InventorySummary(ctx); err != nil {
		return nil, err
	}
	if out.Orders, err = s.OrderStatusSummary(ctx, types.OrderStatusQuery{RetailerCode: req.RetailerCode, Start: start}); err != nil {
		return nil, err
	}
	if out.Sales, err = s.SalesSummary(ctx, types.SalesQuery{Start: start}); err != nil {
		return nil, err
	}
	if out.AccountBalances, err = s.AccountBalances(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
