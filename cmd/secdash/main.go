package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/audit"
	"github.com/dmko-sec/secdash/internal/console/handler"
	"github.com/dmko-sec/secdash/internal/console/server"
	"github.com/dmko-sec/secdash/internal/console/service"
	"github.com/dmko-sec/secdash/internal/domain"
	"github.com/dmko-sec/secdash/internal/infra"
	"github.com/dmko-sec/secdash/internal/infra/auth"
	"github.com/dmko-sec/secdash/internal/metrics"
	"github.com/dmko-sec/secdash/internal/refresh"
	"github.com/dmko-sec/secdash/internal/repository/postgres"
)

func main() {
	// 1. Configuration and logging
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("invalid signing key", zap.Error(err))
	}
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("invalid verification key", zap.Error(err))
	}

	// 2. Infrastructure resources
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := postgres.NewRepo(appCtx, cfg.Database)
	if err != nil {
		logger.Fatal("database config invalid", zap.Error(err))
	}
	defer repo.Close()

	pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
	err = repo.Ping(pingCtx)
	pingCancel()
	if err != nil {
		logger.Fatal("database unreachable", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// 3. Audit trail (batched background writer)
	trail := audit.NewTrail(repo, logger)
	trail.Start()
	defer trail.Stop()

	// 4. Snapshot cache and optional background refresh
	sink := refresh.NewRedisSink(rdb, logger)

	watcher := refresh.NewSnapshotWatcher(sink, logger)
	if err := watcher.Init(appCtx); err != nil {
		logger.Warn("snapshot cache priming failed", zap.Error(err))
	}
	go watcher.StartListener(appCtx)

	var scheduler *refresh.Scheduler
	if cfg.Refresh.SourceURL != "" {
		source := refresh.NewHTTPSource(
			cfg.Refresh.SourceURL,
			cfg.Refresh.FetchTimeout,
			cfg.Refresh.RateLimit,
			cfg.Refresh.RateBurst,
			m, logger,
		)
		scheduler = refresh.NewScheduler(
			source, sink,
			[]domain.RecordKind{domain.KindDevice, domain.KindViolation, domain.KindIncident, domain.KindWipe},
			cfg.Refresh.Interval,
			m, logger,
		)
		scheduler.Start(appCtx)
		defer scheduler.Stop()
	}

	// 5. Services and handlers (dependency injection)
	authService := service.NewAuthService(repo, privateKey, cfg.Auth.TokenTTL, trail)
	analyticsService := service.NewAnalyticsService(repo, watcher, m, logger)
	datasetService := service.NewDatasetService(repo, sink, trail, m, logger)
	userService := service.NewUserService(repo, trail, cfg.Auth.BcryptCost, logger)

	validator := auth.NewBaseValidator(publicKey)

	srv := server.NewConsoleServer(
		cfg, logger, validator, reg, m,
		handler.NewAuthHandler(authService),
		handler.NewRecordsHandler(analyticsService, trail, logger),
		handler.NewDashboardHandler(analyticsService, logger),
		handler.NewDatasetHandler(datasetService, cfg.Server.MaxUploadMB, logger),
		handler.NewUserHandler(userService, logger),
		handler.NewAuditHandler(repo, logger),
	)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("console API started", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("console API stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("console API exited")
}
