// Package app wires repositories, the balance engine and the domain services
// over one database client. Every binary builds its graph through here.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/cardledger/internal/accounts"
	"github.com/angelmondragon/cardledger/internal/analytics"
	"github.com/angelmondragon/cardledger/internal/analytics/query"
	"github.com/angelmondragon/cardledger/internal/giftcards"
	"github.com/angelmondragon/cardledger/internal/imports"
	"github.com/angelmondragon/cardledger/internal/inventory"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/internal/orders"
	"github.com/angelmondragon/cardledger/internal/retailers"
	"github.com/angelmondragon/cardledger/internal/sales"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/metrics"
)

// Services is the wired service graph.
type Services struct {
	Engine    *ledger.Engine
	Retailers retailers.Service
	GiftCards giftcards.Service
	Orders    orders.Service
	Inventory inventory.Service
	Sales     sales.Service
	Accounts  accounts.Service
	Analytics analytics.Service
	Transfers *imports.Service
}

// New builds every service. When reg is nil the engine runs without metrics.
func New(client *db.Client, logg *logger.Logger, reg prometheus.Registerer) (*Services, error) {
	if client == nil {
		return nil, fmt.Errorf("database client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	conn := client.DB()

	engine, err := ledger.NewEngine(client, ledger.NewRepository(conn),
		ledger.WithLogger(logg),
		ledger.WithMetrics(metrics.NewLedgerMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("ledger engine: %w", err)
	}

	retailerSvc, err := retailers.NewService(client, retailers.NewRepository(conn), logg)
	if err != nil {
		return nil, fmt.Errorf("retailer service: %w", err)
	}
	giftCardSvc, err := giftcards.NewService(giftcards.NewRepository(conn), engine, logg)
	if err != nil {
		return nil, fmt.Errorf("gift card service: %w", err)
	}
	inventoryRepo := inventory.NewRepository(conn)
	inventorySvc, err := inventory.NewService(inventoryRepo, engine, logg)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}
	orderSvc, err := orders.NewService(orders.NewRepository(conn), engine, orders.NewInventoryReceiver(inventoryRepo), logg)
	if err != nil {
		return nil, fmt.Errorf("order service: %w", err)
	}
	saleSvc, err := sales.NewService(sales.NewRepository(conn), engine, logg)
	if err != nil {
		return nil, fmt.Errorf("sale service: %w", err)
	}
	accountSvc, err := accounts.NewService(accounts.NewRepository(conn), engine, logg)
	if err != nil {
		return nil, fmt.Errorf("account service: %w", err)
	}
	ledgerQueries, err := query.NewLedgerService(conn)
	if err != nil {
		return nil, fmt.Errorf("report queries: %w", err)
	}
	analyticsSvc, err := analytics.NewService(ledgerQueries)
	if err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}
	transfers, err := imports.NewService(giftCardSvc, logg)
	if err != nil {
		return nil, fmt.Errorf("import service: %w", err)
	}

	return &Services{
		Engine:    engine,
		Retailers: retailerSvc,
		GiftCards: giftCardSvc,
		Orders:    orderSvc,
		Inventory: inventorySvc,
		Sales:     saleSvc,
		Accounts:  accountSvc,
		Analytics: analyticsSvc,
		Transfers: transfers,
	}, nil
}
