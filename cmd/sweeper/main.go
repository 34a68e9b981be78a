package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/config"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "carbon-marketplace-sweeper",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	// Connect to database
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
		}
	}

	// Initialize store
	dataStore := store.NewStore(db)

	// Initialize balance sweeper
	balanceSweeper := sweeper.NewBalanceSweeper(sweeper.BalanceSweeperConfig{
		Interval:        cfg.BalanceSweeper.Interval,
		WorkerPoolSize:  cfg.BalanceSweeper.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.BalanceSweeper.Worker.WorkerQueueSize,
	}, dataStore, balance.NewAggregator(), adapter.NewClock())

	logger.InfoCtx(ctx, "Initialized balance sweeper (continuous mode)",
		zap.Duration("interval", cfg.BalanceSweeper.Interval),
		zap.Int("worker_pool_size", cfg.BalanceSweeper.Worker.WorkerPoolSize),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := balanceSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := balanceSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
