package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	var (
		down        int
		showVersion bool
	)
	flag.IntVar(&down, "down", 0, "Roll back this many migrations instead of applying")
	flag.BoolVar(&showVersion, "version", false, "Print the current schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	switch {
	case showVersion:
		v, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatal("read version", zap.Error(err))
		}
		logger.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	case down > 0:
		if err := migrate.Rollback(ctx, pool, down); err != nil {
			logger.Fatal("rollback migrations", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", down))
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}
}
