package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/backend"
	"cloudbudget/internal/cli"
	"cloudbudget/internal/log"
	"cloudbudget/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting cloudbudget-worker")

	if !cfg.QueueEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx := context.Background()
	app, err := cli.OpenApp(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open local state", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backup, err := backend.NewFactory(logger.Logger).CreateBackup(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backup", log.FieldError, err)
		os.Exit(1)
	}
	if backup == nil {
		logger.Error("BACKUP_BACKEND must name a backup target for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewBackupWorker(app.Backend.Persister, backup, app.Backend.Settings)

	runCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(context.Context) {
		client.Close()
	})

	runCtx = log.WithContext(runCtx, logger)

	// Requests may have been missed while the worker was down.
	logger.Info("Performing startup backup")
	if err := w.Backup(runCtx); err != nil {
		logger.Error("Startup backup failed", log.FieldError, err)
	}

	if err := client.ConsumeBackupRequests(runCtx, w.HandleBackupRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		client.Close()
		app.Close()
		os.Exit(1)
	}
	<-done
}
