package service

import (
	"context"
	"fmt"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/repository"
)

// MergeRanking folds one observation into a ranking record in place. Weekly
// and monthly ranks are latest-value overwrites; a daily rank becomes a dated
// history entry; language sub-observations recurse one level with the same
// date. Fields absent from the observation leave the stored values untouched.
// Parameters:
//   - rec: the ranking record to update.
//   - obs: the incoming observation.
//   - date: calendar date (YYYY-MM-DD) the observation belongs to.
func MergeRanking(rec *domain.RankingRecord, obs domain.RankingObservation, date string) {
	if obs.Daily != nil {
		AddToHistory(rec, domain.RankEntry{Rank: *obs.Daily, Date: date})
	}
	if obs.Weekly != nil {
		rec.Weekly = obs.Weekly
	}
	if obs.Monthly != nil {
		rec.Monthly = obs.Monthly
	}
	for lang, sub := range obs.Languages {
		if rec.Languages == nil {
			rec.Languages = make(map[string]*domain.RankingRecord)
		}
		child := rec.Languages[lang]
		if child == nil {
			child = &domain.RankingRecord{}
			rec.Languages[lang] = child
		}
		MergeRanking(child, sub, date)
	}
}

// AddToHistory records one daily rank. A second observation for the same date
// overwrites the existing entry in place, keeping insertion order; otherwise
// the entry is appended and the oldest entries are dropped from the front once
// the history exceeds its cap.
func AddToHistory(rec *domain.RankingRecord, entry domain.RankEntry) {
	for i := range rec.DailyHistory {
		if rec.DailyHistory[i].Date == entry.Date {
			rec.DailyHistory[i].Rank = entry.Rank
			return
		}
	}
	rec.DailyHistory = append(rec.DailyHistory, entry)
	if n := len(rec.DailyHistory); n > domain.DailyHistoryCap {
		rec.DailyHistory = rec.DailyHistory[n-domain.DailyHistoryCap:]
	}
}

// RankingService applies ranking observations to persisted content state.
type RankingService struct {
	rankings *repository.RankingRepository
	dryRun   bool
	now      func() time.Time
}

// NewRankingService creates a ranking service. With dryRun set, Apply merges
// and logs but never writes.
func NewRankingService(rankings *repository.RankingRepository, dryRun bool) *RankingService {
	return &RankingService{
		rankings: rankings,
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// Apply loads the ranking state for a content item, merges the observation
// dated today, and saves the result.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - contentID: content item ID.
//   - obs: the observation to merge.
//
// Returns:
//   - *domain.RankingRecord: the merged state.
//   - error: non-nil if loading or saving fails.
func (s *RankingService) Apply(ctx context.Context, contentID string, obs domain.RankingObservation) (*domain.RankingRecord, error) {
	state, err := s.rankings.Get(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking for %s: %w", contentID, err)
	}

	date := s.now().Format("2006-01-02")
	MergeRanking(&state.Ranking, obs, date)

	if s.dryRun {
		logger.With(logger.Fields{
			logger.FieldContentID: contentID,
		}).Info(ctx, "Dry run: would save ranking with %d daily entries", len(state.Ranking.DailyHistory))
		return &state.Ranking, nil
	}

	if err := s.rankings.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save ranking for %s: %w", contentID, err)
	}
	return &state.Ranking, nil
}

// Get returns the stored ranking state for a content item.
func (s *RankingService) Get(ctx context.Context, contentID string) (*domain.RankingRecord, error) {
	state, err := s.rankings.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return &state.Ranking, nil
}
