package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fundledger/internal/amqp"
	"fundledger/internal/cache"
	"fundledger/internal/cli"
	"fundledger/internal/config"
	applog "fundledger/internal/log"
	"fundledger/internal/notify"
	"fundledger/internal/sheets"
	gsheet "fundledger/internal/sheets/google"
	"fundledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	var mirror sheets.LedgerMirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets mirror disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var notifiers notify.Multi
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Failed to initialize Telegram notifier", applog.FieldError, err)
			os.Exit(1)
		}
		notifiers = append(notifiers, tg)
	}
	if cfg.DiscordBotToken != "" {
		dc, err := notify.NewDiscord(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			logger.Error("Failed to initialize Discord notifier", applog.FieldError, err)
			os.Exit(1)
		}
		notifiers = append(notifiers, dc)
	}
	var notifier notify.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}
	logger.Info("Notifications configured", "channels", len(notifiers))

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(mirror, notifier, time.Hour)

	caches := cache.NewManager()
	caches.Register(mirrorWorker.Seen())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	logger.Info("Starting fundledger-worker", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeTransactionRecorded(ctx, mirrorWorker.HandleRecorded)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped")
}
