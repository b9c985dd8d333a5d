package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/repository"
)

func seedReadyRecord(t *testing.T, db *gorm.DB, id string) *domain.IngestionRecord {
	t.Helper()
	rec := &domain.IngestionRecord{
		ID:                id,
		Platform:          domain.PlatformGitHub,
		PlatformID:        "src-" + id,
		Status:            domain.RecordStatusReady,
		Title:             "cool/repo",
		Content:           "A fast data pipeline library",
		TranslatedTitle:   "번역된 제목",
		TranslatedContent: "번역된 내용",
		Digest: &domain.DigestResult{
			SummaryOneline: "A fast data pipeline library for Go",
			Summary:        "Longer English summary.",
			CategoryTags:   domain.StringArray{"open-source"},
			RecommendScore: 8,
			ScoreReason:    "solid tool",
		},
		CrawledAt: time.Now(),
	}
	if err := repository.NewRecordRepository(db).Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	return rec
}

func TestPublish_CreatesItemThenRetiresRecord(t *testing.T) {
	db := newServiceTestDB(t)
	records := repository.NewRecordRepository(db)
	contents := repository.NewContentRepository(db)
	svc := NewPublishService(records, contents, nil, false)

	rec := seedReadyRecord(t, db, "r1")

	item, err := svc.Publish(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := contents.GetBySource(context.Background(), rec.Platform, rec.PlatformID)
	if err != nil {
		t.Fatalf("expected content item persisted: %v", err)
	}
	if stored.ID != item.ID {
		t.Errorf("expected item %s, got %s", item.ID, stored.ID)
	}
	if stored.Type != domain.ContentTypeOpenSource {
		t.Errorf("expected open-source type, got %s", stored.Type)
	}
	if stored.Body != "번역된 내용" || stored.SecondaryBody != "A fast data pipeline library" {
		t.Errorf("unexpected bodies: %q / %q", stored.Body, stored.SecondaryBody)
	}

	if _, err := records.GetByID(context.Background(), rec.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected record retired after publish, got %v", err)
	}
}

func TestPublish_DuplicateFoldsIntoExistingItem(t *testing.T) {
	db := newServiceTestDB(t)
	records := repository.NewRecordRepository(db)
	contents := repository.NewContentRepository(db)
	svc := NewPublishService(records, contents, nil, false)

	rec := seedReadyRecord(t, db, "r1")
	existing := &domain.ContentItem{
		ID:          "c1",
		Slug:        "already-published",
		Type:        domain.ContentTypeOpenSource,
		Platform:    rec.Platform,
		PlatformID:  rec.PlatformID,
		Title:       "already published",
		PublishedAt: time.Now(),
	}
	if err := contents.Create(context.Background(), existing); err != nil {
		t.Fatalf("failed to seed content item: %v", err)
	}

	item, err := svc.Publish(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "c1" {
		t.Errorf("expected existing item returned, got %s", item.ID)
	}

	count, err := contents.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one content item, got %d", count)
	}
	if _, err := records.GetByID(context.Background(), rec.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected leftover record removed, got %v", err)
	}
}

func TestPublish_DryRunWritesNothing(t *testing.T) {
	db := newServiceTestDB(t)
	records := repository.NewRecordRepository(db)
	contents := repository.NewContentRepository(db)
	svc := NewPublishService(records, contents, nil, true)

	rec := seedReadyRecord(t, db, "r1")

	item, err := svc.Publish(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.Title == "" {
		t.Fatalf("expected resolved item in dry run, got %+v", item)
	}

	count, err := contents.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no content items written, got %d", count)
	}
	if _, err := records.GetByID(context.Background(), rec.ID); err != nil {
		t.Errorf("expected record untouched, got %v", err)
	}
}

func TestPublish_RejectsUnreadyRecord(t *testing.T) {
	db := newServiceTestDB(t)
	records := repository.NewRecordRepository(db)
	contents := repository.NewContentRepository(db)
	svc := NewPublishService(records, contents, nil, false)

	rec := &domain.IngestionRecord{
		ID:         "r1",
		Platform:   domain.PlatformGitHub,
		PlatformID: "src-r1",
		Status:     domain.RecordStatusPending,
		CrawledAt:  time.Now(),
	}
	if err := records.Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if _, err := svc.Publish(context.Background(), rec); err == nil {
		t.Fatal("expected error for a record not ready to publish")
	}
}

func TestPublishByIDs_CountsPerRecord(t *testing.T) {
	db := newServiceTestDB(t)
	records := repository.NewRecordRepository(db)
	contents := repository.NewContentRepository(db)
	svc := NewPublishService(records, contents, nil, false)

	seedReadyRecord(t, db, "r1")

	stats, err := svc.PublishByIDs(context.Background(), []string{"r1", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 2 || stats.Processed != 1 || stats.Failed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
