package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bodekasse/internal/amqp"
	"bodekasse/internal/backend"
	"bodekasse/internal/cli"
	"bodekasse/internal/log"
	"bodekasse/internal/store/google"
	"bodekasse/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentWorker)
	logger.Info("Starting bodekasse-mirror")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration invalid", log.FieldError, err)
		os.Exit(1)
	}

	storeResult := cli.OpenStore(context.Background(), logger, cfg)
	defer storeResult.Close()

	sheetCfg := backend.GoogleConfig(cfg)
	sheetCfg.Logger = logger
	sheet, err := google.New(context.Background(), sheetCfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Mirroring to spreadsheet", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(storeResult.Store, sheet, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on anything that changed while the worker was down.
	if err := mirror.Mirror(ctx); err != nil {
		logger.Error("Startup mirror failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerEvents(gctx, mirror.HandleLedgerEvent)
	})
	g.Go(func() error {
		mirror.RunPeriodic(gctx, cfg.MirrorInterval)
		return nil
	})

	logger.Info("Mirror worker running", "interval", cfg.MirrorInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Mirror worker stopped gracefully")
}
