package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
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
		ServiceName: "pressroom-analyze",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	platform := flag.String("platform", "", "Only process records from this platform")
	limit := flag.Int("limit", 0, "Maximum number of records to process (0 = all pending)")
	recordID := flag.String("id", "", "Process a single record by ID")
	dryRun := flag.Bool("dry-run", false, "Run extraction and analysis without writing anything")
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
	}).Info("Starting analysis pass")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	recordRepo := repository.NewRecordRepository(db)

	// Initialize screenshot storage
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.SetPassID(ctx, uuid.New().String())

	if err := screenshotStore.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize services
	visionService := service.NewVisionService(&service.VisionConfig{
		Model:   cfg.Vision.Model,
		APIKey:  cfg.Vision.APIKey,
		BaseURL: cfg.Vision.BaseURL,
	})

	transcriptService := service.NewTranscriptService(&service.TranscriptConfig{
		BaseURL:           cfg.Transcript.BaseURL,
		APIKey:            cfg.Transcript.APIKey,
		PreferredLanguage: cfg.Transcript.PreferredLanguage,
		FallbackLanguage:  cfg.Transcript.FallbackLanguage,
	})

	analysisService := service.NewAnalysisService(&service.AnalysisConfig{
		Model:             cfg.Analysis.Model,
		APIKey:            cfg.Analysis.APIKey,
		BaseURL:           cfg.Analysis.BaseURL,
		PrimaryLanguage:   cfg.Analysis.PrimaryLanguage,
		SecondaryLanguage: cfg.Analysis.SecondaryLanguage,
	})

	chain := service.NewExtractionChain(visionService, transcriptService, screenshotStore)

	retry := service.NewRetryController(&service.RetryConfig{
		MaxAttempts:    cfg.Pipeline.MaxAttempts,
		BaseDelay:      cfg.Pipeline.BaseDelay,
		RateLimitDelay: cfg.Pipeline.RateLimitDelay,
		Classify:       service.ClassifyAIError,
	})

	pipeline := service.NewPipeline(recordRepo, chain, analysisService, retry, &service.PipelineOptions{
		ItemDelay: cfg.Pipeline.ItemDelay,
		DryRun:    *dryRun,
	})

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Run the pass
	if *recordID != "" {
		if err := pipeline.ProcessOne(ctx, *recordID); err != nil {
			appLogger.WithError(err).Fatal("Failed to process record")
		}
		appLogger.WithField("record_id", *recordID).Info("Record processed")
		return
	}

	stats, err := pipeline.ProcessPending(ctx, domain.Platform(*platform), *limit)
	if err != nil {
		appLogger.WithError(err).Fatal("Analysis pass failed")
	}
	appLogger.WithFields(logger.Fields{
		"total":     stats.Total,
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"failed":    stats.Failed,
	}).Info("Analysis pass completed")
}
