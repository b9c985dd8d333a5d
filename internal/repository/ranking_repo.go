package repository

import (
	"context"
	"errors"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RankingRepository handles persisted ranking state per content item.
type RankingRepository struct {
	db *gorm.DB
}

// NewRankingRepository creates a new RankingRepository.
func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

// Get retrieves the ranking state for a content item. A missing row yields
// an empty record so callers can merge into it directly.
func (r *RankingRepository) Get(ctx context.Context, contentID string) (*domain.ContentRanking, error) {
	var ranking domain.ContentRanking
	err := r.db.WithContext(ctx).First(&ranking, "content_id = ?", contentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.ContentRanking{ContentID: contentID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ranking, nil
}

// Save writes the ranking state, inserting or replacing the row for the
// content item.
func (r *RankingRepository) Save(ctx context.Context, ranking *domain.ContentRanking) error {
	ranking.UpdatedAt = time.Now()
	if ranking.CreatedAt.IsZero() {
		ranking.CreatedAt = ranking.UpdatedAt
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"ranking", "updated_at"}),
	}).Create(ranking).Error
}
