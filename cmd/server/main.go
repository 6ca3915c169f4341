package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/config"
	"github.com/mamadbah2/costquote/internal/repository/cache"
	"github.com/mamadbah2/costquote/internal/repository/mongodb"
	"github.com/mamadbah2/costquote/internal/repository/sheets"
	"github.com/mamadbah2/costquote/internal/scheduler"
	"github.com/mamadbah2/costquote/internal/server/handlers"
	"github.com/mamadbah2/costquote/internal/server/router"
	costsvc "github.com/mamadbah2/costquote/internal/service/costs"
	productsvc "github.com/mamadbah2/costquote/internal/service/products"
	quotationsvc "github.com/mamadbah2/costquote/internal/service/quotations"
	reportingsvc "github.com/mamadbah2/costquote/internal/service/reporting"
	"github.com/mamadbah2/costquote/pkg/clients/notify"
	"github.com/mamadbah2/costquote/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Timeout, logger.Named(baseLogger, "repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		baseLogger.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	var reportCache *cache.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			baseLogger.Warn("redis unavailable, report cache disabled", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			reportCache = cache.New(redisClient, cfg.Redis.TTL, logger.Named(baseLogger, "cache"))
			baseLogger.Info("report cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, profit report export disabled")
	}

	var notifier notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewClient(cfg.Notify)
	} else {
		baseLogger.Warn("notify webhook not configured, digests are only logged")
	}

	productSvc := productsvc.NewService(mongoRepo, mongoRepo, reportCache, logger.Named(baseLogger, "svc.products"))
	costSvc := costsvc.NewService(mongoRepo, mongoRepo, reportCache, logger.Named(baseLogger, "svc.costs"))
	quotationSvc := quotationsvc.NewService(mongoRepo, mongoRepo, mongoRepo, reportCache, logger.Named(baseLogger, "svc.quotations"))
	reportingSvc := reportingsvc.NewService(quotationSvc, sheetsRepo, notifier, logger.Named(baseLogger, "svc.reporting"))

	engine := router.New(router.Handlers{
		Products:   handlers.NewProductHandler(productSvc, logger.Named(baseLogger, "handlers.products")),
		Costs:      handlers.NewCostHandler(costSvc, logger.Named(baseLogger, "handlers.costs")),
		Quotations: handlers.NewQuotationHandler(quotationSvc, logger.Named(baseLogger, "handlers.quotations")),
		Health:     handlers.NewHealthHandler(mongoRepo, logger.Named(baseLogger, "handlers.health")),
	}, cfg.Server.AdminAPIKey, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
