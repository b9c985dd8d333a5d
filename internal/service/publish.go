package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
	"github.com/minho/pressroom/internal/storage"
)

// slugMaxLen bounds the title part of a slug before the uniqueness suffix.
const slugMaxLen = 60

// PublishService turns ready_to_publish records into public content items
// and retires the source record. The content item is created first, so an
// interrupted run leaves the record ready and the next run resolves the
// already-created item through the duplicate check.
type PublishService struct {
	records  *repository.RecordRepository
	contents *repository.ContentRepository
	store    storage.ScreenshotStore
	dryRun   bool
	now      func() time.Time
}

// NewPublishService creates a publish service. store may be nil when no
// object storage is configured; screenshot URLs are then omitted. With dryRun
// set, Publish resolves everything but writes nothing.
func NewPublishService(records *repository.RecordRepository, contents *repository.ContentRepository, store storage.ScreenshotStore, dryRun bool) *PublishService {
	return &PublishService{
		records:  records,
		contents: contents,
		store:    store,
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// PublishReady publishes every ready record, optionally filtered by platform.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - platform: platform filter; empty means all platforms.
//   - limit: maximum records this pass; 0 means all ready.
//
// Returns:
//   - *PassStats: per-pass counters.
//   - error: non-nil only when listing fails; individual failures are counted.
func (s *PublishService) PublishReady(ctx context.Context, platform domain.Platform, limit int) (*PassStats, error) {
	stats := &PassStats{StartTime: time.Now()}

	recs, err := s.records.ListByStatus(ctx, domain.RecordStatusReady, platform, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ready records: %w", err)
	}
	stats.Total = len(recs)

	for i := range recs {
		rec := &recs[i]
		recCtx := logger.SetRecordID(ctx, rec.ID)
		if _, err := s.Publish(recCtx, rec); err != nil {
			stats.Failed++
			logger.CtxError(recCtx, "Publish failed: %v", err)
			continue
		}
		stats.Processed++
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldCount:      stats.Processed,
		logger.FieldDurationMs: stats.Duration().Milliseconds(),
	}).Info(ctx, "Publish pass finished: %d published, %d failed of %d",
		stats.Processed, stats.Failed, stats.Total)
	return stats, nil
}

// PublishByIDs publishes an explicit list of records, regardless of how they
// are ordered among ready records. Records that cannot be loaded or are not
// publishable are counted as failed; the rest of the list still runs.
func (s *PublishService) PublishByIDs(ctx context.Context, ids []string) (*PassStats, error) {
	stats := &PassStats{StartTime: time.Now(), Total: len(ids)}

	for _, id := range ids {
		recCtx := logger.SetRecordID(ctx, id)
		rec, err := s.records.GetByID(recCtx, id)
		if err != nil {
			stats.Failed++
			logger.CtxError(recCtx, "Failed to load record: %v", err)
			continue
		}
		if _, err := s.Publish(recCtx, rec); err != nil {
			stats.Failed++
			logger.CtxError(recCtx, "Publish failed: %v", err)
			continue
		}
		stats.Processed++
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		logger.FieldCount:      stats.Processed,
		logger.FieldDurationMs: stats.Duration().Milliseconds(),
	}).Info(ctx, "Publish pass finished: %d published, %d failed of %d",
		stats.Processed, stats.Failed, stats.Total)
	return stats, nil
}

// Publish creates the content item for one ready record, then removes the
// ingestion record. When a content item already exists for the record's
// platform identity, the record is folded into it instead of publishing a
// duplicate.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: a record in ready_to_publish status with a digest attached.
//
// Returns:
//   - *domain.ContentItem: the created or already existing item.
//   - error: non-nil if the record is not publishable or a write fails.
func (s *PublishService) Publish(ctx context.Context, rec *domain.IngestionRecord) (*domain.ContentItem, error) {
	if rec.Status != domain.RecordStatusReady {
		return nil, fmt.Errorf("record %s is %s, not ready to publish", rec.ID, rec.Status)
	}
	if rec.Digest == nil {
		return nil, fmt.Errorf("record %s has no digest", rec.ID)
	}

	existing, err := s.contents.GetBySource(ctx, rec.Platform, rec.PlatformID)
	if err == nil {
		// A previous run already published this source. The record is a
		// leftover; fold it in rather than creating a second item.
		logger.CtxWarn(ctx, "Content %s already published for %s/%s, removing leftover record",
			existing.ID, rec.Platform, rec.PlatformID)
		if !s.dryRun {
			if err := s.records.Delete(ctx, rec.ID); err != nil {
				return nil, fmt.Errorf("failed to remove leftover record: %w", err)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing content: %w", err)
	}

	item := s.buildItem(rec)

	if s.dryRun {
		logger.With(logger.Fields{
			logger.FieldContentID: item.ID,
			logger.FieldPlatform:  string(rec.Platform),
		}).Info(ctx, "Dry run: would publish %q as %s (slug %s)", item.Title, item.Type, item.Slug)
		return item, nil
	}

	if err := s.contents.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create content item: %w", err)
	}
	// The content item is durable; the ingestion record is retired. If this
	// delete fails the record stays ready and the duplicate check above
	// resolves it on the next run.
	if err := s.records.Delete(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("content %s created but record not retired: %w", item.ID, err)
	}

	logger.With(logger.Fields{
		logger.FieldContentID: item.ID,
		logger.FieldPlatform:  string(rec.Platform),
	}).Info(ctx, "Published %q as %s", item.Title, item.Type)
	return item, nil
}

// buildItem maps a ready record onto its public content item. The primary
// title and body are the translated forms; the source language forms go to
// the secondary fields.
func (s *PublishService) buildItem(rec *domain.IngestionRecord) *domain.ContentItem {
	digest := rec.Digest
	now := s.now()

	title := rec.TranslatedTitle
	if title == "" {
		title = rec.Title
	}
	body := rec.TranslatedContent
	if body == "" {
		body = rec.Content
	}

	var screenshotURL string
	if s.store != nil && rec.ScreenshotKey != "" {
		screenshotURL = s.store.GetURL(rec.ScreenshotKey)
	}

	var sourcePublishedAt *time.Time
	if ts := rec.RawData.String("posted_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			sourcePublishedAt = &t
		}
	}

	return &domain.ContentItem{
		ID:                uuid.New().String(),
		Slug:              makeSlug(rec.Title, now),
		Type:              domain.ContentTypeFor(rec.Platform),
		Platform:          rec.Platform,
		PlatformID:        rec.PlatformID,
		Title:             title,
		Body:              body,
		SecondaryTitle:    rec.Title,
		SecondaryBody:     rec.Content,
		Author:            rec.RawData.String("author"),
		SummaryOneline:    digest.SummaryOneline,
		CategoryTags:      digest.CategoryTags,
		RecommendScore:    digest.RecommendScore,
		ScreenshotURL:     screenshotURL,
		SourcePublishedAt: sourcePublishedAt,
		PublishedAt:       now,
	}
}

// makeSlug derives a URL slug from a title: lowercase, runs of non
// alphanumerics collapsed to single hyphens, truncated, with a millisecond
// timestamp suffix in base 36 for uniqueness.
func makeSlug(title string, now time.Time) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) && r < 128 || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > slugMaxLen {
		slug = strings.Trim(slug[:slugMaxLen], "-")
	}
	suffix := strconv.FormatInt(now.UnixMilli(), 36)
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
