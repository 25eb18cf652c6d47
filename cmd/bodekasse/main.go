package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bodekasse/internal/amqp"
	"bodekasse/internal/auth"
	"bodekasse/internal/cli"
	apphttp "bodekasse/internal/http"
	"bodekasse/internal/log"
	"bodekasse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	storeResult := cli.OpenStore(ctx, logger, cfg)

	catalog, err := cfg.Catalog()
	if err != nil {
		logger.Error("Invalid fine catalog", log.FieldError, err)
		os.Exit(1)
	}

	opts := services.Options{
		Catalog:        catalog,
		Gate:           auth.NewGate(cfg.AdminToken),
		PaymentPhone:   cfg.MobilePayPhone,
		PaymentBaseURL: cfg.PaymentBaseURL,
		Logger:         logger.WithComponent(log.ComponentLedger),
	}

	// Ledger events are optional; without a broker the board works alone.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err)
		} else {
			opts.Publisher = amqpClient
			logger.Info("Publishing ledger events",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewFineService(storeResult.Store, opts)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Currency: cfg.Currency,
		Logger:   logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := storeResult.Close(); err != nil {
			logger.Warn("Store close error", log.FieldError, err)
		}
	})

	logger.Info("Starting bodekasse server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"fine_types", catalog.Len(),
		"payment_links", cfg.MobilePayPhone != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
