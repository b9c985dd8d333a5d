package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/minho/pressroom/internal/config"
	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
	"github.com/minho/pressroom/internal/service"
	"github.com/minho/pressroom/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "pressroom-publish",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	platform := flag.String("platform", "", "Only publish records from this platform")
	limit := flag.Int("limit", 0, "Maximum number of records to publish (0 = all ready)")
	ids := flag.String("id", "", "Comma-separated record IDs to publish instead of all ready records")
	dryRun := flag.Bool("dry-run", false, "Resolve everything without writing anything")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"platform": *platform,
		"limit":    *limit,
		"dry_run":  *dryRun,
	}).Info("Starting publish pass")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	recordRepo := repository.NewRecordRepository(db)
	contentRepo := repository.NewContentRepository(db)

	// Initialize screenshot storage for public URLs
	screenshotStore, err := storage.NewStore(&storage.S3Config{
		Type:      storage.StoreType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	publishService := service.NewPublishService(recordRepo, contentRepo, screenshotStore, *dryRun)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.SetPassID(ctx, uuid.New().String())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	var stats *service.PassStats
	if *ids != "" {
		stats, err = publishService.PublishByIDs(ctx, splitIDs(*ids))
	} else {
		stats, err = publishService.PublishReady(ctx, domain.Platform(*platform), *limit)
	}
	if err != nil {
		appLogger.WithError(err).Fatal("Publish pass failed")
	}
	appLogger.WithFields(logger.Fields{
		"total":     stats.Total,
		"published": stats.Processed,
		"failed":    stats.Failed,
	}).Info("Publish pass completed")
}

// splitIDs parses the -id flag value, dropping empty entries.
func splitIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
