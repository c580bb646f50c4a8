package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/hanaplan/settled/internal/adapter/http"
	"github.com/hanaplan/settled/internal/adapter/http/handler"
	postgresRepo "github.com/hanaplan/settled/internal/adapter/repository/postgres"
	redisRepo "github.com/hanaplan/settled/internal/adapter/repository/redis"
	"github.com/hanaplan/settled/internal/infrastructure/config"
	"github.com/hanaplan/settled/internal/infrastructure/logger"
	"github.com/hanaplan/settled/internal/infrastructure/metrics"
	"github.com/hanaplan/settled/internal/infrastructure/postgres"
	"github.com/hanaplan/settled/internal/infrastructure/redis"
	"github.com/hanaplan/settled/internal/scheduler"
	"github.com/hanaplan/settled/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Metrics
	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	contractRepo := postgresRepo.NewLoanContractRepository(pool)
	scheduleRepo := postgresRepo.NewRepaymentScheduleRepository(pool)
	savingsRepo := postgresRepo.NewSavingsRepository(pool)
	participantRepo := postgresRepo.NewParticipantRepository(pool)
	runRepo := postgresRepo.NewRunRepository(pool)
	runLocker := redisRepo.NewRunLocker(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	// Initialize use cases
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, historyRepo, idGen, retrier)
	loanUC := usecase.NewLoanSettlementUseCase(contractRepo, scheduleRepo, transferUC, appLogger)
	savingsUC := usecase.NewSavingsSettlementUseCase(accountRepo, participantRepo, savingsRepo, transferUC, idGen, appLogger)
	reportUC := usecase.NewReportUseCase(runRepo, cfg.AuditDir, appLogger)
	runner := usecase.NewSettlementRunner(loanUC, savingsUC, reportUC, runLocker, cfg.RunLockTTL, appLogger)
	accountUC := usecase.NewAccountUseCase(accountRepo)
	historyUC := usecase.NewHistoryUseCase(historyRepo)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SettlementHandler: handler.NewSettlementHandler(runner, reportUC, appMetrics),
		AccountHandler:    handler.NewAccountHandler(accountUC, historyUC),
		HealthHandler:     handler.NewHealthHandler(pool, redisClient),
		Logger:            appLogger,
		Metrics:           appMetrics,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start the daily scheduler
	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	if cfg.SchedulerEnabled {
		sched := scheduler.New(scheduler.Config{
			Runner:  runner,
			Hour:    cfg.SettlementHour,
			Minute:  cfg.SettlementMinute,
			Logger:  appLogger,
			Metrics: appMetrics,
		})

		go func() {
			if err := sched.Start(schedCtx); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.Error().Err(err).Msg("scheduler stopped")
			}
		}()
	}

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")
	stopScheduler()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}
