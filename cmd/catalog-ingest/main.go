package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-orders/internal/ingest"
	"github.com/xenking/kart-orders/internal/storage/postgres"
)

const progressEvery = 10_000

func main() {
	var (
		databaseURL string
		expected    uint
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&expected, "expected-records", 1_000_000, "expected number of distinct products, sizes the duplicate filter")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	files := flag.Args()
	if len(files) == 0 {
		lg.Fatal("No input files: pass one or more catalog .jsonl.gz paths")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, databaseURL, files, expected); err != nil {
		lg.Fatal("Catalog ingest failed", zap.Error(err))
	}
	lg.Info("Catalog ingest completed")
}

func run(ctx context.Context, databaseURL string, files []string, expected uint) error {
	lg := zctx.From(ctx)
	lg.Info("Connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	products := postgres.NewProductRepository(pool)
	imported := 0
	sink := func(ctx context.Context, r ingest.Record) error {
		if err := products.Save(ctx, r.Product()); err != nil {
			return err
		}
		imported++
		if imported%progressEvery == 0 {
			lg.Info("Import progress", zap.Int("imported", imported))
		}
		return nil
	}

	lg.Info("Loading catalog", zap.Strings("files", files))
	stats, err := ingest.NewLoader(ingest.WithExpectedRecords(expected)).Load(ctx, files, sink)
	lg.Info("Catalog stats",
		zap.Int("read", stats.Read),
		zap.Int("imported", stats.Imported),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("invalid", stats.Invalid),
	)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	return nil
}
