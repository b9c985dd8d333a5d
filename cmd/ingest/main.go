package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/minho/pressroom/internal/config"
	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
)

// crawledItem is one entry of a crawler output file.
type crawledItem struct {
	Platform           string         `json:"platform"`
	PlatformID         string         `json:"platform_id"`
	RawData            domain.RawData `json:"raw_data"`
	ScreenshotKey      string         `json:"screenshot_key,omitempty"`
	TranscriptSourceID string         `json:"transcript_source_id,omitempty"`
	CrawledAt          time.Time      `json:"crawled_at"`
}

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "pressroom-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	inputFile := flag.String("file", "", "Crawler output file (JSON array of records)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *inputFile == "" {
		appLogger.Fatal("-file is required")
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
	recordRepo := repository.NewRecordRepository(db)

	data, err := os.ReadFile(*inputFile)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read input file")
	}
	var items []crawledItem
	if err := json.Unmarshal(data, &items); err != nil {
		appLogger.WithError(err).Fatal("Failed to parse input file")
	}

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

	ingested, failed := 0, 0
	for _, item := range items {
		if item.Platform == "" || item.PlatformID == "" {
			appLogger.WithField("platform_id", item.PlatformID).Error("Record missing platform identity, skipping")
			failed++
			continue
		}
		crawledAt := item.CrawledAt
		if crawledAt.IsZero() {
			crawledAt = time.Now()
		}
		rec := &domain.IngestionRecord{
			ID:                 uuid.New().String(),
			Platform:           domain.Platform(item.Platform),
			PlatformID:         item.PlatformID,
			RawData:            item.RawData,
			ScreenshotKey:      item.ScreenshotKey,
			TranscriptSourceID: item.TranscriptSourceID,
			Status:             domain.RecordStatusPending,
			CrawledAt:          crawledAt,
		}
		if err := recordRepo.Upsert(ctx, rec); err != nil {
			appLogger.WithError(err).WithFields(logger.Fields{
				"platform":    item.Platform,
				"platform_id": item.PlatformID,
			}).Error("Failed to upsert record")
			failed++
			continue
		}
		ingested++
	}

	appLogger.WithFields(logger.Fields{
		"total":    len(items),
		"ingested": ingested,
		"failed":   failed,
	}).Info("Ingestion completed")
}
