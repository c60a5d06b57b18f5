package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finchat/internal/backend"
	"finchat/internal/cli"
	"finchat/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Logs go to stderr so they do not interleave with the conversation.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLogger(level, os.Stderr, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	result, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendConfig)
	if err != nil {
		cancel()
		cli.Fatal(logger, "Failed to create ledger backend", err, "backend", cfg.LedgerBackend)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	assistant, err := cli.BuildAssistant(startCtx, cfg, result.Backend, nil, logger)
	cancel()
	if err != nil {
		logger.Error("Failed to build assistant", log.FieldError, err)
		return
	}

	repl := cli.NewREPL(assistant.Router, result.Backend, cfg.CurrencySymbol, os.Stdout)
	if err := repl.Run(ctx, os.Stdin); err != nil && err != context.Canceled {
		logger.Error("Terminal chat stopped", log.FieldError, err)
	}
}
