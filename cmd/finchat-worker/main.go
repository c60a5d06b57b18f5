package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finchat/internal/amqp"
	"finchat/internal/cache"
	"finchat/internal/cli"
	"finchat/internal/log"
	"finchat/internal/sheets"
	gsheet "finchat/internal/sheets/google"
	mem "finchat/internal/sheets/memory"
	"finchat/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout, log.ComponentWorker)
	logger.Info("Starting finchat-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		cli.Fatal(logger, "Worker needs a broker", errors.New("AMQP_URL is not set"))
	}

	var writer sheets.AuditWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewServiceAccount(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		headerCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.EnsureHeader(headerCtx); err != nil {
			logger.Warn("Could not verify audit sheet header", log.FieldError, err)
		}
		cancel()
		writer = client
		logger.Info("Google Sheets mirror enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		writer = mem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, audit rows are kept in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	mirror := worker.NewMirrorWorker(writer, logger)
	caches := cache.NewManager(logger)
	caches.Register("mirrored_events", mirror.SeenCache())
	caches.StartCleanup(time.Hour)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		caches.Stop()
		stats := mirror.Stats()
		logger.Info("Mirror totals",
			"appended", stats.Appended,
			"duplicates", stats.Duplicates,
			"failures", stats.Failures)
	})

	go func() {
		if err := amqpClient.ConsumeLedgerEvents(ctx, mirror.HandleLedgerEvent); err != nil && !errors.Is(err, context.Canceled) {
			cli.Fatal(logger, "Message consumption failed", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if err := amqpClient.Close(); err != nil {
		logger.Warn("AMQP close error", log.FieldError, err)
	}
	logger.Info("Worker stopped")
}
