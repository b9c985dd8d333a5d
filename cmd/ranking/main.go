package main

import (
	"context"
	"encoding/json"
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
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "pressroom-ranking",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	rankingFile := flag.String("file", "", "JSON file mapping content IDs to ranking observations")
	metricsFile := flag.String("metrics", "", "JSON file mapping content IDs to metric snapshots")
	dryRun := flag.Bool("dry-run", false, "Merge and log without writing anything")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *rankingFile == "" && *metricsFile == "" {
		appLogger.Fatal("Either -file or -metrics is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	rankingService := service.NewRankingService(repository.NewRankingRepository(db), *dryRun)
	metricsService := service.NewMetricsService(repository.NewMetricsRepository(db), *dryRun)

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

	if *rankingFile != "" {
		applied, failed := applyRankings(ctx, rankingService, *rankingFile, appLogger)
		appLogger.WithFields(logger.Fields{
			"applied": applied,
			"failed":  failed,
		}).Info("Ranking observations applied")
	}

	if *metricsFile != "" {
		recorded, failed := recordMetrics(ctx, metricsService, *metricsFile, appLogger)
		appLogger.WithFields(logger.Fields{
			"recorded": recorded,
			"failed":   failed,
		}).Info("Metric snapshots recorded")
	}
}

// applyRankings merges every observation in the file into stored ranking
// state, continuing past individual failures.
func applyRankings(ctx context.Context, svc *service.RankingService, path string, log *logger.Logger) (applied, failed int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Fatal("Failed to read ranking file")
	}

	var observations map[string]domain.RankingObservation
	if err := json.Unmarshal(data, &observations); err != nil {
		log.WithError(err).Fatal("Failed to parse ranking file")
	}

	for contentID, obs := range observations {
		if _, err := svc.Apply(ctx, contentID, obs); err != nil {
			log.WithError(err).WithField("content_id", contentID).Error("Failed to apply observation")
			failed++
			continue
		}
		applied++
	}
	return applied, failed
}

// recordMetrics appends one snapshot per content item from the file.
func recordMetrics(ctx context.Context, svc *service.MetricsService, path string, log *logger.Logger) (recorded, failed int) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Fatal("Failed to read metrics file")
	}

	var snapshots map[string]domain.MetricMap
	if err := json.Unmarshal(data, &snapshots); err != nil {
		log.WithError(err).Fatal("Failed to parse metrics file")
	}

	for contentID, metrics := range snapshots {
		if err := svc.RecordSnapshot(ctx, contentID, metrics); err != nil {
			log.WithError(err).WithField("content_id", contentID).Error("Failed to record snapshot")
			failed++
			continue
		}
		recorded++
	}
	return recorded, failed
}
