package repository

import (
	"context"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"gorm.io/gorm"
)

// MetricsRepository handles the append-only metrics snapshot log.
type MetricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Insert appends a snapshot. Snapshots are immutable; there is no update path.
func (r *MetricsRepository) Insert(ctx context.Context, snap *domain.MetricsSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

// ListByContent retrieves snapshots for a content item within a window,
// oldest first so window stats read chronologically.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contentID: content item ID.
//   - days: window size in days counting back from now; 0 means unbounded.
//   - limit: maximum number of snapshots to return; 0 means no limit.
//
// Returns:
//   - []domain.MetricsSnapshot: matching snapshots ordered by recorded_at ASC.
//   - error: non-nil if the query fails.
func (r *MetricsRepository) ListByContent(ctx context.Context, contentID string, days, limit int) ([]domain.MetricsSnapshot, error) {
	var snaps []domain.MetricsSnapshot
	query := r.db.WithContext(ctx).Where("content_id = ?", contentID)
	if days > 0 {
		since := time.Now().AddDate(0, 0, -days)
		query = query.Where("recorded_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("recorded_at ASC").Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}
