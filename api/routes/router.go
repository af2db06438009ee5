package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cardledger/api/controllers"
	"github.com/angelmondragon/cardledger/api/middleware"
	"github.com/angelmondragon/cardledger/internal/accounts"
	"github.com/angelmondragon/cardledger/internal/analytics"
	"github.com/angelmondragon/cardledger/internal/cron"
	"github.com/angelmondragon/cardledger/internal/giftcards"
	"github.com/angelmondragon/cardledger/internal/inventory"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/internal/orders"
	"github.com/angelmondragon/cardledger/internal/retailers"
	"github.com/angelmondragon/cardledger/internal/sales"
	"github.com/angelmondragon/cardledger/pkg/config"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/metrics"
)

// Params carries everything the router wires into controllers. Cache and
// Idempotency are optional and only set when redis is configured.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	Database    controllers.Pinger
	Cache       controllers.Pinger
	Idempotency middleware.IdempotencyStore
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Retailers retailers.Service
	GiftCards giftcards.Service
	Orders    orders.Service
	Inventory inventory.Service
	Sales     sales.Service
	Accounts  accounts.Service
	Analytics analytics.Service
	Transfers controllers.CardTransfer
	Engine    *ledger.Engine
	Reconcile *cron.ReconcileJob
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Database, p.Cache))
	})

	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/retailers", func(r chi.Router) {
			r.Get("/", controllers.ListRetailers(p.Retailers, logg))
			r.Post("/", controllers.CreateRetailer(p.Retailers, logg))
			r.Get("/{id}", controllers.GetRetailer(p.Retailers, logg))
			r.Patch("/{id}", controllers.UpdateRetailer(p.Retailers, logg))
			r.Delete("/{id}", controllers.DeleteRetailer(p.Retailers, logg))
		})

		r.Route("/gift-cards", func(r chi.Router) {
			r.Get("/", controllers.ListGiftCards(p.GiftCards, logg))
			r.Post("/", controllers.CreateGiftCard(p.GiftCards, logg))
			r.Get("/{id}", controllers.GetGiftCard(p.GiftCards, logg))
			r.Patch("/{id}", controllers.UpdateGiftCard(p.GiftCards, logg))
			r.Delete("/{id}", controllers.DeleteGiftCard(p.GiftCards, logg))
			r.Post("/{id}/status", controllers.SetGiftCardStatus(p.GiftCards, logg))
			r.Get("/{id}/usage", controllers.GiftCardUsage(p.GiftCards, logg))
			r.Post("/{id}/usage", controllers.UseGiftCard(p.GiftCards, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/{id}", controllers.GetOrder(p.Orders, logg))
			r.Patch("/{id}", controllers.UpdateOrder(p.Orders, logg))
			r.Delete("/{id}", controllers.DeleteOrder(p.Orders, logg))
			r.Post("/{id}/status", controllers.SetOrderStatus(p.Orders, logg))
			r.Post("/{id}/items", controllers.AddOrderItem(p.Orders, logg))
			r.Delete("/{id}/items/{itemId}", controllers.RemoveOrderItem(p.Orders, logg))
			r.Post("/{id}/allocations", controllers.AllocateGiftCard(p.Orders, logg))
			r.Post("/{id}/attachments", controllers.AddOrderAttachment(p.Orders, logg))
			r.Delete("/{id}/attachments/{attachmentId}", controllers.DeleteOrderAttachment(p.Orders, logg))
		})

		r.Route("/inventory/items", func(r chi.Router) {
			r.Get("/", controllers.ListInventoryItems(p.Inventory, logg))
			r.Post("/", controllers.CreateInventoryItem(p.Inventory, logg))
			r.Get("/{id}", controllers.GetInventoryItem(p.Inventory, logg))
			r.Patch("/{id}", controllers.UpdateInventoryItem(p.Inventory, logg))
			r.Delete("/{id}", controllers.DeleteInventoryItem(p.Inventory, logg))
			r.Get("/{id}/movements", controllers.InventoryMovements(p.Inventory, logg))
			r.Post("/{id}/adjustments", controllers.AdjustInventoryItem(p.Inventory, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(p.Sales, logg))
			r.Post("/", controllers.CreateSale(p.Sales, logg))
			r.Get("/{id}", controllers.GetSale(p.Sales, logg))
			r.Patch("/{id}", controllers.UpdateSale(p.Sales, logg))
			r.Delete("/{id}", controllers.DeleteSale(p.Sales, logg))
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", controllers.ListAccounts(p.Accounts, logg))
			r.Post("/", controllers.CreateAccount(p.Accounts, logg))
			r.Get("/{id}", controllers.GetAccount(p.Accounts, logg))
			r.Patch("/{id}", controllers.UpdateAccount(p.Accounts, logg))
			r.Delete("/{id}", controllers.DeleteAccount(p.Accounts, logg))
			r.Get("/{id}/transactions", controllers.AccountTransactions(p.Accounts, logg))
			r.Post("/{id}/transactions", controllers.RecordAccountTransaction(p.Accounts, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", controllers.Dashboard(p.Analytics, logg))
			r.Get("/gift-cards", controllers.GiftCardSummary(p.Analytics, logg))
			r.Get("/gift-cards/by-retailer", controllers.GiftCardValueByRetailer(p.Analytics, logg))
			r.Get("/inventory", controllers.InventorySummary(p.Analytics, logg))
			r.Get("/orders", controllers.OrderStatusSummary(p.Analytics, logg))
			r.Get("/sales", controllers.SalesSummary(p.Analytics, logg))
			r.Get("/accounts", controllers.AccountBalances(p.Analytics, logg))
		})

		if p.Transfers != nil {
			r.Post("/imports/{code}", controllers.ImportGiftCards(p.Transfers, logg))
			r.Get("/exports/{code}", controllers.ExportGiftCards(p.Transfers, logg))
		}

		r.Route("/ledger", func(r chi.Router) {
			if p.Engine != nil {
				r.Post("/recompute/{kind}/{id}", controllers.RecomputeEntity(p.Engine, logg))
			}
			if p.Reconcile != nil {
				r.Post("/reconcile", controllers.Reconcile(p.Reconcile, logg))
			}
		})
	})

	return r
}
