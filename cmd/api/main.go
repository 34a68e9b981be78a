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
	"golang.org/x/crypto/bcrypt"

	"github.com/feral-file/carbon-marketplace/internal/account"
	"github.com/feral-file/carbon-marketplace/internal/adapter"
	"github.com/feral-file/carbon-marketplace/internal/api/middleware"
	"github.com/feral-file/carbon-marketplace/internal/api/server"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/executor"
	"github.com/feral-file/carbon-marketplace/internal/balance"
	"github.com/feral-file/carbon-marketplace/internal/blob"
	"github.com/feral-file/carbon-marketplace/internal/config"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/messaging"
	"github.com/feral-file/carbon-marketplace/internal/notifier"
	"github.com/feral-file/carbon-marketplace/internal/plantation"
	"github.com/feral-file/carbon-marketplace/internal/providers/jetstream"
	"github.com/feral-file/carbon-marketplace/internal/ratelimit"
	"github.com/feral-file/carbon-marketplace/internal/settlement"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/verification"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "carbon-marketplace-api",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Carbon Marketplace API")

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
		zap.String("driver", cfg.Database.Driver),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Database schema migrated")
	}

	// Initialize store
	dataStore := store.NewStore(db)

	// Initialize adapters
	clock := adapter.NewClock()
	random := adapter.NewRandom()
	jsonAdapter := adapter.NewJSON()

	// Image storage
	blobStore := blob.NewDisabledStore()
	if cfg.Cloudflare.APIToken != "" && cfg.Cloudflare.AccountID != "" {
		cfClient, err := adapter.NewCloudflareClient(cfg.Cloudflare.APIToken)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create Cloudflare client", zap.Error(err))
		}
		blobStore = blob.NewCloudflareStore(cfClient, blob.Config{
			AccountID: cfg.Cloudflare.AccountID,
			MaxSize:   cfg.Plantation.MaxImageSize,
		})
		logger.InfoCtx(ctx, "Plantation images stored in Cloudflare Images")
	} else {
		logger.WarnCtx(ctx, "Cloudflare not configured, plantation image uploads are disabled")
	}

	// Event publisher and notifier
	var publisher messaging.Publisher = messaging.NewLogPublisher()
	var notify notifier.Notifier = notifier.NewLogNotifier()
	if cfg.NATS.URL != "" {
		conn, err := jetstream.Connect(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			PublishTimeout: cfg.NATS.PublishTimeout,
		}, adapter.NewNatsJetStream())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer conn.Close()

		publisher = jetstream.NewPublisher(conn.JetStream(), jsonAdapter, clock, cfg.NATS.PublishTimeout)
		if cfg.Notifier.Driver == "nats" {
			notify = jetstream.NewNotifier(conn.JetStream(), jsonAdapter, clock, cfg.NATS.PublishTimeout)
		}
		logger.InfoCtx(ctx, "Connected to NATS",
			zap.String("stream", cfg.NATS.StreamName),
			zap.String("notifier", cfg.Notifier.Driver))
	} else {
		logger.WarnCtx(ctx, "NATS not configured, events and notifications are only logged")
	}

	// Workflows
	aggregator := balance.NewAggregator()
	retry := store.RetryPolicy{
		MaxRetries:     cfg.Settlement.MaxRetries,
		InitialBackoff: cfg.Settlement.InitialBackoff,
	}
	tokens := account.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock)
	accounts := account.NewService(
		dataStore,
		account.NewBcryptCredentialStore(bcrypt.DefaultCost),
		notify,
		tokens,
		random,
		clock,
		account.Config{
			MaxFailedLoginAttempts: cfg.Security.MaxFailedLoginAttempts,
			LockoutDuration:        cfg.Security.LockoutDuration,
			EmailCodeTTL:           cfg.Security.EmailCodeTTL,
			TwoFactorCodeTTL:       cfg.Security.TwoFactorCodeTTL,
		},
	)

	exec := executor.NewExecutor(dataStore, executor.Services{
		Accounts:         accounts,
		Plantations:      plantation.NewLedger(dataStore, blobStore, aggregator, publisher, plantation.Config{DefaultNDVI: cfg.Plantation.DefaultNDVI, Retry: retry}),
		Verification:     verification.NewWorkflow(dataStore, aggregator, publisher, clock, retry),
		Settlement:       settlement.NewSettlement(dataStore, aggregator, publisher, retry),
		Notifier:         notify,
		ContactRecipient: cfg.Notifier.ContactRecipient,
	})

	limiter := ratelimit.NewKeyedLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.Security.LoginRatePerMinute,
		Burst:             cfg.Security.LoginRateBurst,
	}, clock)

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowOrigins: cfg.Server.AllowOrigins,
		MaxImageSize: cfg.Plantation.MaxImageSize,
	}, exec, middleware.AuthConfig{
		Tokens:  tokens,
		APIKeys: cfg.Auth.APIKeys,
	}, limiter)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
