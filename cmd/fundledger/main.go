package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fundledger/internal/amqp"
	"fundledger/internal/auth"
	"fundledger/internal/backend"
	"fundledger/internal/cache"
	"fundledger/internal/cli"
	"fundledger/internal/config"
	apphttp "fundledger/internal/http"
	applog "fundledger/internal/log"
	"fundledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWeb)
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	stores, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Publishing is optional: without AMQP the mirror worker is simply not fed.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}

	intake := services.NewIntakeService(
		stores.Donations, stores.Outflows,
		services.Collections{Donations: cfg.DonationsCollection, Outflows: cfg.OutflowsCollection},
		publisher, cfg.IdempotencyTTL)
	dashboard := services.NewDashboardService(stores.Donations, stores.Outflows, cfg.LedgerLimit, cfg.SummaryLimit)

	caches := cache.NewManager()
	caches.Register(intake.IdempotencyCache())
	caches.StartCleanup(10 * time.Minute)

	sessions, err := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Invalid session configuration", applog.FieldError, err)
		os.Exit(1)
	}
	provider := auth.NewGoogleProvider(cfg.GoogleOAuthClientID, cfg.GoogleOAuthClientSecret, cfg.RedirectURL())
	authenticator := auth.New(provider, sessions, cfg.AllowedMemberEmails)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Auth:               authenticator,
		Intake:             intake,
		Dashboard:          dashboard,
		Ready:              stores.Ping,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close failed", applog.FieldError, err)
			}
		}
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting fundledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ledger_limit", cfg.LedgerLimit,
		"summary_limit", cfg.SummaryLimit,
		"members", len(cfg.AllowedMemberEmails))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
