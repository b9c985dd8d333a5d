package service

import (
	"context"
	"fmt"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/repository"
)

// FeedResult is one page of published content.
type FeedResult struct {
	Items  []domain.ContentItem `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// FeedService serves published content to readers. It is read-only; all
// writes happen in the publish and ranking passes.
type FeedService struct {
	contents *repository.ContentRepository
	metrics  *MetricsService
	rankings *RankingService
}

// NewFeedService creates a feed service.
func NewFeedService(contents *repository.ContentRepository, metrics *MetricsService, rankings *RankingService) *FeedService {
	return &FeedService{
		contents: contents,
		metrics:  metrics,
		rankings: rankings,
	}
}

// List returns one page of the feed, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contentType: type filter; empty means all types.
//   - limit: page size.
//   - offset: page start.
//
// Returns:
//   - *FeedResult: the page with the total count.
//   - error: non-nil if a query fails.
func (s *FeedService) List(ctx context.Context, contentType domain.ContentType, limit, offset int) (*FeedResult, error) {
	items, err := s.contents.List(ctx, contentType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	total, err := s.contents.Count(ctx, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	return &FeedResult{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetBySlug returns one published item by its slug.
func (s *FeedService) GetBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	return s.contents.GetBySlug(ctx, slug)
}

// MetricsHistory returns the snapshot log for a content item, oldest first.
func (s *FeedService) MetricsHistory(ctx context.Context, contentID string, days, limit int) ([]domain.MetricsSnapshot, error) {
	return s.metrics.History(ctx, contentID, days, limit)
}

// MetricsStats summarizes the snapshot window for a content item.
func (s *FeedService) MetricsStats(ctx context.Context, contentID string, days int) (map[string]MetricStats, error) {
	return s.metrics.Stats(ctx, contentID, days)
}

// Ranking returns the ranking state for a content item.
func (s *FeedService) Ranking(ctx context.Context, contentID string) (*domain.RankingRecord, error) {
	return s.rankings.Get(ctx, contentID)
}
