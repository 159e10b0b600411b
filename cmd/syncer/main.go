package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"factsync/internal/config"
	"factsync/internal/metrics"
	"factsync/internal/notifier"
	"factsync/internal/scheduler"
	"factsync/internal/server"
	"factsync/internal/service"
	"factsync/internal/source/check"
	"factsync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := postgres.RunMigrations(cfg.Database.MigrationURL()); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	db, err := postgres.Connect(cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Notifier fan-out: RabbitMQ for downstream consumers, websockets for
	// live dashboards.
	broadcaster := notifier.NewBroadcaster(logger)

	rabbitMQ, err := notifier.NewRabbitMQ(notifier.RabbitMQConfig{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()
	broadcaster.Subscribe(rabbitMQ)

	wsHub := notifier.NewWSHub(logger)
	defer wsHub.Close()
	broadcaster.Subscribe(wsHub)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	postStore := postgres.NewPostStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	checkSource := check.New(check.Config{
		APIURL:       cfg.Check.APIURL,
		Token:        cfg.Check.Token,
		TeamSlug:     cfg.Check.TeamSlug,
		FetchLimit:   cfg.Sync.FetchLimit,
		Timeout:      cfg.Check.Timeout,
		ProbeTimeout: cfg.Check.ProbeTimeout,
	}, logger)

	syncService := service.NewSyncService(
		checkSource,
		postStore,
		syncStateStore,
		txManager,
		broadcaster,
		collector,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	rateLimiter := server.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, logger)
	defer rateLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Posts:       postStore,
		Syncer:      syncService,
		Prober:      checkSource,
		PushHandler: wsHub,
		Gatherer:    registry,
		RateLimiter: rateLimiter,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		logger.Info("starting http server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting fact-check syncer",
		"source", checkSource.Name(),
		"team", cfg.Check.TeamSlug,
		"interval", cfg.Sync.Interval,
		"fetch_limit", cfg.Sync.FetchLimit,
	)

	schedErr := sched.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if schedErr != nil && !errors.Is(schedErr, context.Canceled) {
		logger.Error("scheduler error", "error", schedErr)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
