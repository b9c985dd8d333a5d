package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
)

// PassStats summarizes one analysis pass.
type PassStats struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the wall time of the pass.
func (s *PassStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Pipeline drives pending records through extraction and analysis. Each
// record moves pending_analysis -> processing -> ready_to_publish. Every
// failure path reverts the record to pending_analysis so a later pass retries
// it; analysis failures additionally stamp an error note.
type Pipeline struct {
	records  *repository.RecordRepository
	chain    *ExtractionChain
	analysis *AnalysisService
	retry    *RetryController

	itemDelay time.Duration
	dryRun    bool
	sleep     func(ctx context.Context, d time.Duration) error
}

// PipelineOptions holds pass-level settings for a Pipeline.
type PipelineOptions struct {
	ItemDelay time.Duration
	DryRun    bool
}

// NewPipeline creates a pipeline.
// Parameters:
//   - records: record repository for status transitions.
//   - chain: extraction chain.
//   - analysis: analysis service.
//   - retry: retry controller wrapping the analysis call.
//   - opts: pass-level settings.
//
// Returns:
//   - *Pipeline: initialized pipeline.
func NewPipeline(records *repository.RecordRepository, chain *ExtractionChain, analysis *AnalysisService, retry *RetryController, opts *PipelineOptions) *Pipeline {
	return &Pipeline{
		records:   records,
		chain:     chain,
		analysis:  analysis,
		retry:     retry,
		itemDelay: opts.ItemDelay,
		dryRun:    opts.DryRun,
		sleep:     sleepContext,
	}
}

// ProcessPending runs one analysis pass over pending records.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - platform: platform filter; empty means all platforms.
//   - limit: maximum records this pass; 0 means all pending.
//
// Returns:
//   - *PassStats: per-pass counters.
//   - error: non-nil only when listing fails or ctx is cancelled; individual
//     record failures are counted, not returned.
func (p *Pipeline) ProcessPending(ctx context.Context, platform domain.Platform, limit int) (*PassStats, error) {
	stats := &PassStats{StartTime: time.Now()}

	recs, err := p.records.ListByStatus(ctx, domain.RecordStatusPending, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending records: %w", err)
	}
	stats.Total = len(recs)

	logger.With(logger.Fields{
		logger.FieldCount:    stats.Total,
		logger.FieldPlatform: string(platform),
	}).Info(ctx, "Starting analysis pass")

	for i := range recs {
		rec := &recs[i]
		recCtx := logger.SetRecordID(ctx, rec.ID)
		recCtx = logger.SetPlatform(recCtx, string(rec.Platform))

		switch err := p.processRecord(recCtx, rec); {
		case err == nil:
			stats.Processed++
		case errors.Is(err, ErrUnextractable):
			stats.Skipped++
		default:
			stats.Failed++
			logger.CtxError(recCtx, "Record failed: %v", err)
		}

		if i < len(recs)-1 && p.itemDelay > 0 {
			if err := p.sleep(ctx, p.itemDelay); err != nil {
				stats.EndTime = time.Now()
				return stats, err
			}
		}
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldCount:      stats.Processed,
		logger.FieldDurationMs: stats.Duration().Milliseconds(),
	}).Info(ctx, "Analysis pass finished: %d processed, %d skipped, %d failed of %d",
		stats.Processed, stats.Skipped, stats.Failed, stats.Total)
	return stats, nil
}

// ProcessOne runs the pipeline for a single record by ID, regardless of how
// it is ordered among pending records. Quarantined records are admitted here
// so an operator can re-run them individually.
func (p *Pipeline) ProcessOne(ctx context.Context, id string) error {
	rec, err := p.records.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load record %s: %w", id, err)
	}
	if rec.Status != domain.RecordStatusPending && rec.Status != domain.RecordStatusFailed {
		return fmt.Errorf("record %s is %s, not awaiting analysis", id, rec.Status)
	}
	ctx = logger.SetRecordID(ctx, rec.ID)
	ctx = logger.SetPlatform(ctx, string(rec.Platform))
	return p.processRecord(ctx, rec)
}

// processRecord moves one record through extraction and analysis. The
// processing marker is written before any external call so a concurrent pass
// does not pick the record up again; every failure path clears the marker.
func (p *Pipeline) processRecord(ctx context.Context, rec *domain.IngestionRecord) error {
	if err := p.setStatus(ctx, rec.ID, domain.RecordStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}

	extracted, err := p.chain.Extract(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrUnextractable) {
			// Nothing to analyze. Not an error worth a note; leave the
			// record pending for a future crawl to enrich.
			logger.CtxInfo(ctx, "No extractable content, skipping record")
			if stErr := p.setStatus(ctx, rec.ID, domain.RecordStatusPending, ""); stErr != nil {
				return stErr
			}
			return err
		}
		if stErr := p.setStatus(ctx, rec.ID, domain.RecordStatusPending, truncateNote(err.Error())); stErr != nil {
			return stErr
		}
		return err
	}

	var digest *domain.DigestResult
	analyzeErr := p.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		digest, err = p.analysis.Analyze(ctx, &AnalysisInput{
			Platform: string(rec.Platform),
			Title:    extracted.Title,
			Author:   extracted.Author,
			Content:  extracted.Content,
		})
		return err
	})
	if analyzeErr != nil {
		// The record stays retryable; the note says why the last pass gave up.
		if stErr := p.setStatus(ctx, rec.ID, domain.RecordStatusPending, truncateNote(analyzeErr.Error())); stErr != nil {
			return stErr
		}
		return analyzeErr
	}

	rec.Digest = digest
	rec.Title = resolveTitle(rec.Platform, extracted, digest)
	rec.Content = extracted.Content
	rec.TranslatedTitle = digest.TranslatedTitle
	rec.TranslatedContent = digest.TranslatedContent

	if p.dryRun {
		logger.With(logger.Fields{
			logger.FieldStatus: string(domain.RecordStatusReady),
		}).Info(ctx, "Dry run: would complete analysis with title %q score %d", rec.Title, digest.RecommendScore)
		return nil
	}

	if err := p.records.CompleteAnalysis(ctx, rec); err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	logger.CtxInfo(ctx, "Record ready to publish: %q (score %d)", rec.Title, digest.RecommendScore)
	return nil
}

// setStatus writes a status transition unless the pass is a dry run, in
// which case the intended transition is logged.
func (p *Pipeline) setStatus(ctx context.Context, id string, status domain.RecordStatus, note string) error {
	if p.dryRun {
		logger.With(logger.Fields{
			logger.FieldStatus: string(status),
		}).Info(ctx, "Dry run: would set status")
		return nil
	}
	return p.records.UpdateStatus(ctx, id, status, note)
}

// resolveTitle picks the record title. Short-form posts have no real titles,
// so x and threads records are titled by author and one-line summary.
func resolveTitle(platform domain.Platform, extracted *ExtractedContent, digest *domain.DigestResult) string {
	if platform == domain.PlatformX || platform == domain.PlatformThreads {
		if extracted.Author != "" {
			return extracted.Author + " - " + digest.SummaryOneline
		}
		return digest.SummaryOneline
	}
	if extracted.Title != "" {
		return extracted.Title
	}
	return digest.SummaryOneline
}

// truncateNote bounds error notes stored on records.
func truncateNote(note string) string {
	const max = 500
	if len(note) > max {
		return note[:max]
	}
	return note
}
