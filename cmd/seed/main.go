package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/repository/category"
	"storefront/internal/repository/product"
	"storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	res, err := seed.Apply(ctx, category.NewPostgres(pool, logger), product.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.Int("categories", res.Categories), zap.Int("products", res.Products))
}
