package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/r2gate/internal/config"
	"github.com/timmy/r2gate/internal/logger"
	"github.com/timmy/r2gate/internal/service"
	"github.com/timmy/r2gate/internal/source/localdir"
	"github.com/timmy/r2gate/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "r2gate-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	dir := flag.String("dir", "", "Local directory to upload (required)")
	prefix := flag.String("prefix", "", "Key prefix for uploaded objects")
	limit := flag.Int("limit", 0, "Maximum number of files to upload (0 = all)")
	workers := flag.Int("workers", 0, "Concurrent uploads (default from config)")
	skipExisting := flag.Bool("skip-existing", false, "Skip keys that already exist in the bucket")
	dryRun := flag.Bool("dry-run", false, "List what would be uploaded without uploading")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(2)
	}
	if info, err := os.Stat(*dir); err != nil || !info.IsDir() {
		appLogger.WithField("dir", *dir).Fatal("Not a directory")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *workers <= 0 {
		*workers = cfg.Ingest.Workers
	}

	objectStorage, err := storage.NewStorage(cfg.GetStorageConfig())
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Storage.EnsureBucket {
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	}

	gateway := service.NewStorageGateway(objectStorage, nil, nil)
	ingestService := service.NewIngestService(gateway, &service.IngestConfig{Workers: *workers})

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	stats, err := ingestService.IngestFromSource(ctx, localdir.NewAdapter(*dir), *limit, &service.IngestOptions{
		Prefix:       *prefix,
		SkipExisting: *skipExisting,
		DryRun:       *dryRun,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Ingestion failed")
	}
	if stats.FailedItems > 0 {
		appLogger.WithField("failed", stats.FailedItems).Error("Some files failed to upload")
		os.Exit(1)
	}
}
