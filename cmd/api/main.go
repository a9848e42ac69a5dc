package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cartstore "storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/repository/cartslot"
	categoryrepo "storefront/internal/repository/category"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	categorysvc "storefront/internal/service/category"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	sessionsvc "storefront/internal/service/session"
)

const (
	sweepInterval = 10 * time.Minute
	cartMaxIdle   = time.Hour
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck
	logger = logger.Named("api")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	readyChecks := map[string]httpserver.ReadyCheck{}
	slot, closeSlot, err := openSlot(ctx, cfg, dbpool, logger, readyChecks)
	if err != nil {
		logger.Fatal("open cart slot store", zap.String("backend", cfg.CartBackend), zap.Error(err))
	}
	defer closeSlot()

	registry := cartstore.NewRegistry(slot, logger)
	go registry.RunSweeper(ctx, sweepInterval, cartMaxIdle)

	productRepo := productrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	catalogService := catalogsvc.New(productRepo)
	categoryService := categorysvc.New(categoryRepo, catalogService)
	cartService := cartsvc.New(registry, catalogService, logger)
	checkoutService := checkoutsvc.New(registry, orderRepo, logger)
	orderService := ordersvc.New(orderRepo)
	customerService := customersvc.New(customerRepo, tokenRepo, logger)
	sessionService := sessionsvc.New(cfg.SessionTTL, slot)

	go runJanitor(ctx, logger, tokenRepo, sessionService)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:  catalogService,
		CategorySvc: categoryService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
		CustomerSvc: customerService,
		SessionSvc:  sessionService,
		CORSOrigins: cfg.CORSOrigins,
		ReadyChecks: readyChecks,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr), zap.String("cart_backend", cfg.CartBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// openSlot picks the cart slot backend and registers its readiness check.
func openSlot(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger, checks map[string]httpserver.ReadyCheck) (cartstore.Slot, func(), error) {
	switch cfg.CartBackend {
	case "redis":
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return cartslot.NewRedis(client, cfg.CartTTL), func() { client.Close() }, nil
	case "postgres":
		return cartslot.NewPostgres(pool), func() {}, nil
	case "memory":
		logger.Warn("cart slots are kept in memory and will not survive a restart")
		return cartslot.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cart backend %q", cfg.CartBackend)
	}
}

type expiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionSweeper interface {
	Sweep() int
}

func runJanitor(ctx context.Context, logger *zap.Logger, tokens expiredTokenDeleter, sessions sessionSweeper) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := tokens.DeleteExpired(ctx, now)
			if err != nil && ctx.Err() == nil {
				logger.Warn("delete expired tokens", zap.Error(err))
			}
			swept := sessions.Sweep()
			if n > 0 || swept > 0 {
				logger.Debug("janitor pass", zap.Int64("tokens", n), zap.Int("sessions", swept))
			}
		}
	}
}
