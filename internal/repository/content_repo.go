package repository

import (
	"context"

	"github.com/minho/pressroom/internal/domain"
	"gorm.io/gorm"
)

// ContentRepository handles published content data operations.
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Create inserts a new content item.
func (r *ContentRepository) Create(ctx context.Context, item *domain.ContentItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID retrieves a content item by its ID.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySlug retrieves a content item by its slug.
func (r *ContentRepository) GetBySlug(ctx context.Context, slug string) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySource retrieves a content item by its original platform identity.
// Used by publish to detect an already-published record on retried runs.
func (r *ContentRepository) GetBySource(ctx context.Context, platform domain.Platform, platformID string) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "platform = ? AND platform_id = ?", platform, platformID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// List retrieves published content, newest first, optionally filtered by type.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contentType: type to filter by; empty means all.
//   - limit: maximum number of items to return.
//   - offset: number of items to skip.
//
// Returns:
//   - []domain.ContentItem: matching items ordered by published_at DESC.
//   - error: non-nil if the query fails.
func (r *ContentRepository) List(ctx context.Context, contentType domain.ContentType, limit, offset int) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	query := r.db.WithContext(ctx)
	if contentType != "" {
		query = query.Where("type = ?", contentType)
	}
	if err := query.
		Limit(limit).
		Offset(offset).
		Order("published_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count counts published content items.
func (r *ContentRepository) Count(ctx context.Context, contentType domain.ContentType) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.ContentItem{})
	if contentType != "" {
		query = query.Where("type = ?", contentType)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
