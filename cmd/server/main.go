package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
	"github.com/mamadbah2/stockroom/internal/repository/sheets"
	"github.com/mamadbah2/stockroom/internal/scheduler"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/server/router"
	authsvc "github.com/mamadbah2/stockroom/internal/service/auth"
	commandsvc "github.com/mamadbah2/stockroom/internal/service/commands"
	reportingsvc "github.com/mamadbah2/stockroom/internal/service/reporting"
	stocksvc "github.com/mamadbah2/stockroom/internal/service/stock"
	whatsappsvc "github.com/mamadbah2/stockroom/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockroom/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var revocations authsvc.RevocationStore = authsvc.NewMemoryRevocations()
	if cfg.Redis.Enabled() {
		redisStore, err := authsvc.NewRedisRevocations(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisStore.Close() }()
		revocations = redisStore
		baseLogger.Info("token revocations stored in redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		baseLogger.Warn("REDIS_ADDR not set, token revocations kept in memory")
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Info("google sheets export disabled")
	}

	m := metrics.New()
	stockSvc := stocksvc.NewService(mongoRepo, m, baseLogger.Named("svc.stock"))
	authSvc := authsvc.NewService(mongoRepo, revocations, cfg.Auth, baseLogger.Named("svc.auth"))
	reportingSvc := reportingsvc.NewService(mongoRepo, mongoRepo, sheetsRepo, baseLogger.Named("svc.reporting"))

	deps := router.Dependencies{
		Auth:        authSvc,
		AuthHandler: handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Inventory:   handlers.NewInventoryHandler(stockSvc, baseLogger.Named("handlers.inventory")),
		Reports:     handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
		Metrics:     m,
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(stockSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		deps.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp credentials missing, bot and alerts disabled")
	}

	engine := router.New(deps, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	if cfg.MongoDB.WatchChanges {
		go func() {
			if err := stockSvc.WatchChanges(ctx, mongoRepo); err != nil && !errors.Is(err, context.Canceled) {
				baseLogger.Error("inventory change stream stopped", zap.Error(err))
			}
		}()
	}

	// request contexts derive from ctx so open snapshot streams end on shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
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
