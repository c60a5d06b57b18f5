package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"finchat/internal/backend"
	"finchat/internal/cache"
	"finchat/internal/cli"
	apphttp "finchat/internal/http"
	"finchat/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to create backend config", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	result, err := backend.NewFactory(logger.Logger).CreateBackend(startCtx, backendConfig)
	if err != nil {
		cancelStart()
		cli.Fatal(logger, "Failed to create ledger backend", err, "backend", cfg.LedgerBackend)
	}

	caches := cache.NewManager(logger)
	assistant, err := cli.BuildAssistant(startCtx, cfg, result.Backend, caches, logger)
	cancelStart()
	if err != nil {
		_ = result.Cleanup()
		cli.Fatal(logger, "Failed to build assistant", err)
	}
	caches.StartCleanup(5 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:  result.Backend,
		Router:  assistant.Router,
		Advisor: assistant.Advisor,
		Caches:  caches,
	}, apphttp.Options{
		Currency:           cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)

	srv.ReadTimeout = 15 * time.Second
	// Advice runs three model calls in one request.
	srv.WriteTimeout = 3*cfg.LLMTimeout + 30*time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting finchat server",
		"port", cfg.Port,
		"backend", cfg.LedgerBackend,
		"events", result.Events,
		log.FieldProvider, cfg.LLMProvider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
