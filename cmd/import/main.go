package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/cardledger/internal/app"
	"github.com/angelmondragon/cardledger/pkg/config"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "import"})

	_ = godotenv.Load()

	mode := flag.String("mode", "import", "import|export")
	retailer := flag.String("retailer", "", "retailer code whose CSV format is used")
	file := flag.String("file", "", "CSV path (export writes stdout when empty)")
	flag.Parse()

	if *retailer == "" {
		fmt.Fprintln(os.Stderr, "missing -retailer")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "import",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"mode":     *mode,
		"retailer": *retailer,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	requireResource(ctx, logg, "migrations", migrate.MaybeAutoRun(ctx, cfg, logg, dbClient))

	svcs, err := app.New(dbClient, logg, nil)
	requireResource(ctx, logg, "services", err)

	switch *mode {
	case "import":
		if *file == "" {
			fmt.Fprintln(os.Stderr, "missing -file for import")
			os.Exit(1)
		}
		in, err := os.Open(*file)
		requireResource(ctx, logg, "input file", err)
		defer in.Close()

		report, err := svcs.Transfers.Import(ctx, *retailer, in)
		if err != nil {
			logg.Error(ctx, "import failed", err)
			os.Exit(1)
		}
		fmt.Printf("imported %d of %d rows\n", report.Succeeded, report.Total)
		for _, f := range report.Failed {
			fmt.Fprintf(os.Stderr, "line %d: %s\n", f.Line, f.Reason)
		}
		if len(report.Failed) > cfg.Import.MaxFailures {
			logg.Error(logg.WithField(ctx, "failed", len(report.Failed)), "too many rows rejected", report.Err())
			os.Exit(2)
		}

	case "export":
		var out io.Writer = os.Stdout
		if *file != "" {
			f, err := os.Create(*file)
			requireResource(ctx, logg, "output file", err)
			defer f.Close()
			out = f
		}
		n, err := svcs.Transfers.Export(ctx, *retailer, out)
		if err != nil {
			logg.Error(ctx, "export failed", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "rows", n), "export complete")

	default:
		fmt.Fprintln(os.Stderr, "unknown -mode value:", *mode)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
