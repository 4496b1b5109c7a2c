package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abed-obaah/royal-backend/api/routes"
	"github.com/abed-obaah/royal-backend/internal/assets"
	"github.com/abed-obaah/royal-backend/internal/orders"
	"github.com/abed-obaah/royal-backend/internal/portfolio"
	"github.com/abed-obaah/royal-backend/internal/transactions"
	"github.com/abed-obaah/royal-backend/internal/users"
	"github.com/abed-obaah/royal-backend/internal/wallets"
	"github.com/abed-obaah/royal-backend/pkg/config"
	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/logger"
	"github.com/abed-obaah/royal-backend/pkg/metrics"
	"github.com/abed-obaah/royal-backend/pkg/migrate"
	"github.com/abed-obaah/royal-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	walletRepo := wallets.NewRepository(conn)
	assetRepo := assets.NewRepository(conn)
	portfolioRepo := portfolio.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	txnRepo := transactions.NewRepository(conn)

	userService, err := users.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	walletService, err := wallets.NewService(walletRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}
	assetService, err := assets.NewService(assetRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create asset service", err)
		os.Exit(1)
	}
	portfolioService, err := portfolio.NewService(portfolioRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create portfolio service", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orderRepo, walletRepo, assetRepo, portfolioRepo, dbClient, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}
	txnService, err := transactions.NewService(txnRepo, walletRepo, dbClient, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			userService,
			walletService,
			assetService,
			portfolioService,
			orderService,
			txnService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
