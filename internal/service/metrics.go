package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
)

// MetricStats summarizes one metric across a snapshot window.
type MetricStats struct {
	First float64 `json:"first"`
	Last  float64 `json:"last"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	// Avg is rounded to two decimal places.
	Avg    float64 `json:"avg"`
	Change float64 `json:"change"`
	// ChangePercent is zero when the first observation is zero.
	ChangePercent float64 `json:"change_percent"`
	Count         int     `json:"count"`
}

// MetricsService records engagement snapshots and computes window statistics
// over them.
type MetricsService struct {
	snapshots *repository.MetricsRepository
	dryRun    bool
	now       func() time.Time
}

// NewMetricsService creates a metrics service. With dryRun set, RecordSnapshot
// logs the observation but never writes.
func NewMetricsService(snapshots *repository.MetricsRepository, dryRun bool) *MetricsService {
	return &MetricsService{
		snapshots: snapshots,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// RecordSnapshot appends one engagement observation for a content item.
func (s *MetricsService) RecordSnapshot(ctx context.Context, contentID string, metrics domain.MetricMap) error {
	if len(metrics) == 0 {
		return fmt.Errorf("empty metrics for %s", contentID)
	}

	if s.dryRun {
		logger.With(logger.Fields{
			logger.FieldContentID: contentID,
			logger.FieldCount:     len(metrics),
		}).Info(ctx, "Dry run: would record metrics snapshot")
		return nil
	}

	snap := &domain.MetricsSnapshot{
		ID:         uuid.New().String(),
		ContentID:  contentID,
		Metrics:    metrics,
		RecordedAt: s.now(),
	}
	if err := s.snapshots.Insert(ctx, snap); err != nil {
		return fmt.Errorf("failed to record snapshot for %s: %w", contentID, err)
	}
	return nil
}

// History returns snapshots for a content item within a day window, oldest
// first.
func (s *MetricsService) History(ctx context.Context, contentID string, days, limit int) ([]domain.MetricsSnapshot, error) {
	return s.snapshots.ListByContent(ctx, contentID, days, limit)
}

// Stats loads the snapshot window for a content item and summarizes it.
func (s *MetricsService) Stats(ctx context.Context, contentID string, days int) (map[string]MetricStats, error) {
	snaps, err := s.snapshots.ListByContent(ctx, contentID, days, 0)
	if err != nil {
		return nil, err
	}
	return ComputeStats(snaps), nil
}

// ComputeStats summarizes each metric present in the first snapshot across
// the whole window. Metrics that appear only in later snapshots are ignored;
// a snapshot missing a tracked metric contributes nothing to that metric.
// Parameters:
//   - snaps: snapshots ordered oldest first.
//
// Returns:
//   - map[string]MetricStats: per-metric summary, empty when snaps is empty.
func ComputeStats(snaps []domain.MetricsSnapshot) map[string]MetricStats {
	stats := make(map[string]MetricStats)
	if len(snaps) == 0 {
		return stats
	}

	for key := range snaps[0].Metrics {
		var st MetricStats
		sum := 0.0
		for _, snap := range snaps {
			v, ok := snap.Metrics[key]
			if !ok {
				continue
			}
			if st.Count == 0 {
				st.First = v
				st.Min = v
				st.Max = v
			} else {
				if v < st.Min {
					st.Min = v
				}
				if v > st.Max {
					st.Max = v
				}
			}
			st.Last = v
			sum += v
			st.Count++
		}
		if st.Count > 0 {
			st.Avg = math.Round(sum/float64(st.Count)*100) / 100
			st.Change = st.Last - st.First
			if st.First != 0 {
				st.ChangePercent = st.Change / st.First * 100
			}
		}
		stats[key] = st
	}
	return stats
}
