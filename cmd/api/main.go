package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/cardledger/api"
	"github.com/angelmondragon/cardledger/api/routes"
	"github.com/angelmondragon/cardledger/internal/app"
	"github.com/angelmondragon/cardledger/internal/cron"
	"github.com/angelmondragon/cardledger/pkg/config"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/metrics"
	"github.com/angelmondragon/cardledger/pkg/migrate"
	"github.com/angelmondragon/cardledger/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeAutoRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svcs, err := app.New(dbClient, logg, reg)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	if cfg.FeatureFlags.SeedRetailers {
		added, err := svcs.Retailers.SeedDefaults(ctx)
		if err != nil {
			logg.Error(ctx, "failed to seed retailers", err)
			os.Exit(1)
		}
		if added > 0 {
			logg.Info(logg.WithField(ctx, "added", added), "seeded default retailers")
		}
	}

	reconcile, err := cron.NewReconcileJob(cron.ReconcileJobParams{
		Logger: logg,
		Engine: svcs.Engine,
		Repair: cfg.Reconcile.Repair,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reconcile job", err)
		os.Exit(1)
	}

	params := routes.Params{
		Config:      cfg,
		Logger:      logg,
		Database:    dbClient,
		Registry:    reg,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Retailers:   svcs.Retailers,
		GiftCards:   svcs.GiftCards,
		Orders:      svcs.Orders,
		Inventory:   svcs.Inventory,
		Sales:       svcs.Sales,
		Accounts:    svcs.Accounts,
		Analytics:   svcs.Analytics,
		Transfers:   svcs.Transfers,
		Engine:      svcs.Engine,
		Reconcile:   reconcile,
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		params.Cache = redisClient
		params.Idempotency = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	cfg.App.Port = port

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    ":" + port,
		"dialect": dbClient.Dialect(),
		"redis":   cfg.Redis.Enabled(),
	})
	logg.Info(ctx, "starting api server")

	server := api.NewServer(cfg, routes.NewRouter(params))
	if err := api.Serve(ctx, server, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down")
}
