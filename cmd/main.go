package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"mentor/internal/adapters/ai"
	"mentor/internal/adapters/config"
	"mentor/internal/adapters/errors/noop"
	"mentor/internal/adapters/errors/sentry"
	postgresadapter "mentor/internal/adapters/postgres"
	redisadapter "mentor/internal/adapters/redis"
	tghandler "mentor/internal/adapters/telegram"
	"mentor/internal/metrics"
	"mentor/internal/repository/postgres"
	"mentor/internal/services/advisory"
	"mentor/internal/services/broadcast"
	"mentor/internal/services/journal"
	reportsvc "mentor/internal/services/report"
	therapysvc "mentor/internal/services/therapy"
	"mentor/internal/workers"
	"mentor/pkg/errors"
	"mentor/pkg/logger"
	"mentor/pkg/telegram/adapters/tgbotapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Postgres
	pgClient, err := postgresadapter.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer func() { _ = pgClient.Close() }()
	db := pgClient.DB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgresadapter.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis backs the shared AI rate limiter; the bot runs without it
	var redisClient interface{}
	redisConn, err := redisadapter.NewClient(cfg.Redis)
	if err != nil {
		log.Warnf("Redis unavailable, using local AI rate limiting: %v", err)
	} else {
		defer func() { _ = redisConn.Close() }()
		redisClient = redisConn.Client()
	}

	// AI providers
	registry, err := ai.BuildRegistry(cfg.AI, redisClient)
	if err != nil {
		log.Fatalf("Failed to build AI registry: %v", err)
	}
	provider, err := ai.DefaultProvider(registry, cfg.AI)
	if err != nil {
		log.Fatalf("No usable AI provider: %v", err)
	}
	providerName := provider.Name()
	log.Infow("AI provider selected", "provider", providerName)

	// Telegram bot client
	bot, err := tgbotapi.NewBot(cfg.Telegram.BotToken, log)
	if err != nil {
		log.Fatalf("Failed to create telegram bot: %v", err)
	}

	// Services
	repos := postgres.NewRepos(db)
	advisor := advisory.New(registry, providerName, log)
	services := tghandler.Services{
		Journal:   journal.New(db, log),
		Therapy:   therapysvc.New(repos.Sessions, advisor, cfg.Therapy, log),
		Report:    reportsvc.New(db, advisor, log),
		Broadcast: broadcast.New(repos.Users, bot, log),
		Advisor:   advisor,
	}

	handler := tghandler.NewHandler(bot, db, services, cfg, log)
	bot.SetHandler(handler.HandleUpdate)

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewTherapySweeper(
		services.Therapy, repos.Users, bot, cfg.Therapy.SweepInterval))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	var reportCron *workers.ReportCron
	if cfg.Reports.Enabled {
		reportCron = workers.NewReportCron(
			cfg.Reports.Schedule, services.Report, repos.Users, bot, log)
		if err := reportCron.Start(); err != nil {
			log.Fatalf("Failed to start report cron: %v", err)
		}
	}

	metricsServer := startMetricsServer(cfg, db, log)

	// Bot polling loop
	botDone := make(chan error, 1)
	go func() {
		botDone <- bot.Start(ctx)
	}()
	log.Info("System initialized successfully")

	waitForShutdown(ctx, botDone, log)

	// Graceful shutdown
	cancel()
	bot.Stop()
	if reportCron != nil {
		reportCron.Stop()
	}
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer flushCancel()
	_ = errorTracker.Flush(flushCtx)

	log.Info("Shutdown complete")
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// startMetricsServer exposes /metrics when enabled
func startMetricsServer(cfg *config.Config, db *sqlx.DB, log *logger.Logger) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}

	prometheus.MustRegister(metrics.NewCustomCollector(log, db))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
	go func() {
		log.Infow("Metrics server listening", "addr", cfg.Metrics.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server failed: %v", err)
		}
	}()

	return server
}

// waitForShutdown blocks until a signal arrives or the bot loop exits
func waitForShutdown(ctx context.Context, botDone <-chan error, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("Shutdown signal received", "signal", sig)
	case err := <-botDone:
		if err != nil && err != context.Canceled {
			log.Errorf("Bot stopped: %v", err)
		}
	case <-ctx.Done():
	}
}
