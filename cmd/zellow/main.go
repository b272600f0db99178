package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zellow-enterprises/zellow/internal/app"
	"github.com/zellow-enterprises/zellow/internal/auth"
	"github.com/zellow-enterprises/zellow/internal/catalog"
	"github.com/zellow-enterprises/zellow/internal/coupons"
	"github.com/zellow-enterprises/zellow/internal/inventory"
	"github.com/zellow-enterprises/zellow/internal/ledger"
	"github.com/zellow-enterprises/zellow/internal/orders"
	"github.com/zellow-enterprises/zellow/internal/platform/cache"
	"github.com/zellow-enterprises/zellow/internal/platform/db"
	"github.com/zellow-enterprises/zellow/internal/procurement"
	"github.com/zellow-enterprises/zellow/internal/rbac"
	"github.com/zellow-enterprises/zellow/internal/shipping"
	"github.com/zellow-enterprises/zellow/internal/technicians"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, shipping rate cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenCfg := auth.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL}
	authMiddleware := auth.Middleware{Config: tokenCfg, Logger: logger}
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, tokenCfg)

	catalogRepo := catalog.NewRepository(pool)
	catalogHandler := catalog.NewHandler(logger, catalogRepo)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, rbacMiddleware)

	couponsRepo := coupons.NewRepository(pool)
	couponsService := coupons.NewService(couponsRepo, logger)
	couponsHandler := coupons.NewHandler(logger, couponsService, rbacMiddleware)

	rateCache := shipping.NewRateCache(redisClient, cfg.RateCacheTTL)
	shippingRepo := shipping.NewRepository(pool)
	shippingService := shipping.NewService(shippingRepo, rateCache, logger)
	shippingHandler := shipping.NewHandler(logger, shippingService, rbacMiddleware)

	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(procurementRepo, logger)
	procurementHandler := procurement.NewHandler(logger, procurementService, rbacMiddleware)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, logger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, rbacMiddleware)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, inventory.ServiceConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, rbacMiddleware)

	techRepo := technicians.NewRepository(pool)
	techService := technicians.NewService(techRepo, logger)
	techHandler := technicians.NewHandler(logger, techService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		CatalogHandler:     catalogHandler,
		OrdersHandler:      ordersHandler,
		CouponsHandler:     couponsHandler,
		ShippingHandler:    shippingHandler,
		ProcurementHandler: procurementHandler,
		LedgerHandler:      ledgerHandler,
		InventoryHandler:   inventoryHandler,
		TechniciansHandler: techHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
