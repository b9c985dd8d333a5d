package repository

import (
	"context"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRepository handles ingestion record data operations.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new RecordRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *RecordRepository: repository instance bound to db.
func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a new ingestion record.
func (r *RecordRepository) Create(ctx context.Context, rec *domain.IngestionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Upsert creates or updates a record keyed by (platform, platform_id), so
// re-crawling the same post never creates a duplicate row.
func (r *RecordRepository) Upsert(ctx context.Context, rec *domain.IngestionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"raw_data", "screenshot_key", "transcript_source_id", "crawled_at", "updated_at"}),
	}).Create(rec).Error
}

// GetByID retrieves a record by its ID.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.IngestionRecord, error) {
	var rec domain.IngestionRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetBySource retrieves a record by platform and platform ID.
func (r *RecordRepository) GetBySource(ctx context.Context, platform domain.Platform, platformID string) (*domain.IngestionRecord, error) {
	var rec domain.IngestionRecord
	if err := r.db.WithContext(ctx).First(&rec, "platform = ? AND platform_id = ?", platform, platformID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByStatus retrieves records in a given status, most recent first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - status: record status to filter by.
//   - platform: platform to filter by; empty means all platforms.
//   - limit: maximum number of records to return; 0 means no limit.
//
// Returns:
//   - []domain.IngestionRecord: matching records ordered by crawled_at DESC.
//   - error: non-nil if the query fails.
func (r *RecordRepository) ListByStatus(ctx context.Context, status domain.RecordStatus, platform domain.Platform, limit int) ([]domain.IngestionRecord, error) {
	var recs []domain.IngestionRecord
	query := r.db.WithContext(ctx).Where("status = ?", status)
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("crawled_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateStatus sets only the status and error note of a record in a single
// update, used for the processing marker and failure rollback.
func (r *RecordRepository) UpdateStatus(ctx context.Context, id string, status domain.RecordStatus, errorNote string) error {
	return r.db.WithContext(ctx).Model(&domain.IngestionRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"error_note": errorNote,
			"updated_at": time.Now(),
		}).Error
}

// CompleteAnalysis writes the digest result, resolved title, extracted body,
// translations, and the ready_to_publish status in one atomic update.
func (r *RecordRepository) CompleteAnalysis(ctx context.Context, rec *domain.IngestionRecord) error {
	return r.db.WithContext(ctx).Model(&domain.IngestionRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"status":             domain.RecordStatusReady,
			"digest":             rec.Digest,
			"title":              rec.Title,
			"content":            rec.Content,
			"translated_title":   rec.TranslatedTitle,
			"translated_content": rec.TranslatedContent,
			"error_note":         "",
			"updated_at":         time.Now(),
		}).Error
}

// Delete removes a record by ID. Publishing retires records this way once
// their content item exists.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.IngestionRecord{}, "id = ?", id).Error
}

// CountByStatus counts records by status.
func (r *RecordRepository) CountByStatus(ctx context.Context, status domain.RecordStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.IngestionRecord{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
