package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/repository"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.IngestionRecord{}, &domain.ContentItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// newChatTestServer serves a fixed assistant reply in the chat completions
// response shape.
func newChatTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": reply}},
			},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

const validDigestReply = `{
	"summary_oneline": "A fast data pipeline library for Go",
	"summary": "Longer English summary.",
	"translated_title": "번역된 제목",
	"translated_content": "번역된 내용",
	"category_tags": ["open-source"],
	"recommend_score": 8,
	"score_reason": "solid tool"
}`

func newTestPipeline(db *gorm.DB, baseURL string, dryRun bool) *Pipeline {
	analysis := NewAnalysisService(&AnalysisConfig{Model: "test-model", BaseURL: baseURL})
	retry := NewRetryController(&RetryConfig{MaxAttempts: 2, Classify: ClassifyAIError})
	retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	p := NewPipeline(repository.NewRecordRepository(db), NewExtractionChain(nil, nil, nil), analysis, retry, &PipelineOptions{DryRun: dryRun})
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func seedPendingRecord(t *testing.T, db *gorm.DB, id string, raw domain.RawData) {
	t.Helper()
	rec := &domain.IngestionRecord{
		ID:         id,
		Platform:   domain.PlatformGitHub,
		PlatformID: "src-" + id,
		RawData:    raw,
		Status:     domain.RecordStatusPending,
		CrawledAt:  time.Now(),
	}
	if err := repository.NewRecordRepository(db).Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
}

func loadRecord(t *testing.T, db *gorm.DB, id string) *domain.IngestionRecord {
	t.Helper()
	rec, err := repository.NewRecordRepository(db).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	return rec
}

func TestProcessOne_CompletesAnalysisAtomically(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, false)

	seedPendingRecord(t, db, "r1", domain.RawData{
		"title":   "cool/repo",
		"content": "A fast data pipeline library",
	})

	if err := p.ProcessOne(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := loadRecord(t, db, "r1")
	if rec.Status != domain.RecordStatusReady {
		t.Errorf("expected ready status, got %s", rec.Status)
	}
	if rec.Digest == nil || rec.Digest.RecommendScore != 8 {
		t.Errorf("expected digest persisted, got %+v", rec.Digest)
	}
	if rec.Content != "A fast data pipeline library" {
		t.Errorf("expected extracted body persisted, got %q", rec.Content)
	}
	if rec.TranslatedTitle == "" || rec.TranslatedContent == "" {
		t.Errorf("expected translations persisted, got %q/%q", rec.TranslatedTitle, rec.TranslatedContent)
	}
	if rec.ErrorNote != "" {
		t.Errorf("expected error note cleared, got %q", rec.ErrorNote)
	}
}

func TestProcessOne_RevertsToPendingOnBadAnalysis(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, "I could not produce a digest for this content.")
	p := newTestPipeline(db, srv.URL, false)

	seedPendingRecord(t, db, "r1", domain.RawData{
		"title":   "cool/repo",
		"content": "A fast data pipeline library",
	})

	if err := p.ProcessOne(context.Background(), "r1"); err == nil {
		t.Fatal("expected analysis error")
	}

	rec := loadRecord(t, db, "r1")
	if rec.Status != domain.RecordStatusPending {
		t.Errorf("expected record back in pending for a later retry, got %s", rec.Status)
	}
	if rec.ErrorNote == "" {
		t.Error("expected error note stamped")
	}
	if rec.Digest != nil {
		t.Errorf("expected no digest persisted, got %+v", rec.Digest)
	}
}

func TestProcessOne_UnextractableLeavesRecordPending(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, false)

	seedPendingRecord(t, db, "r1", domain.RawData{"title": "only a title"})

	err := p.ProcessOne(context.Background(), "r1")
	if !errors.Is(err, ErrUnextractable) {
		t.Fatalf("expected ErrUnextractable, got %v", err)
	}

	rec := loadRecord(t, db, "r1")
	if rec.Status != domain.RecordStatusPending {
		t.Errorf("expected pending status, got %s", rec.Status)
	}
	if rec.ErrorNote != "" {
		t.Errorf("expected no error note for an unextractable record, got %q", rec.ErrorNote)
	}
}

func TestProcessOne_AdmitsQuarantinedRecord(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, false)

	rec := &domain.IngestionRecord{
		ID:         "r1",
		Platform:   domain.PlatformGitHub,
		PlatformID: "src-r1",
		RawData: domain.RawData{
			"title":   "cool/repo",
			"content": "A fast data pipeline library",
		},
		Status:    domain.RecordStatusFailed,
		ErrorNote: "quarantined by operator",
		CrawledAt: time.Now(),
	}
	if err := repository.NewRecordRepository(db).Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if err := p.ProcessOne(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loadRecord(t, db, "r1"); got.Status != domain.RecordStatusReady || got.ErrorNote != "" {
		t.Errorf("expected quarantined record completed, got %s note %q", got.Status, got.ErrorNote)
	}
}

func TestProcessOne_RejectsNonPendingRecord(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, false)

	rec := &domain.IngestionRecord{
		ID:         "r1",
		Platform:   domain.PlatformGitHub,
		PlatformID: "src-r1",
		Status:     domain.RecordStatusReady,
		CrawledAt:  time.Now(),
	}
	if err := repository.NewRecordRepository(db).Create(context.Background(), rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	if err := p.ProcessOne(context.Background(), "r1"); err == nil {
		t.Fatal("expected error for a record not awaiting analysis")
	}
}

func TestProcessOne_DryRunWritesNothing(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, true)

	seedPendingRecord(t, db, "r1", domain.RawData{
		"title":   "cool/repo",
		"content": "A fast data pipeline library",
	})

	if err := p.ProcessOne(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := loadRecord(t, db, "r1")
	if rec.Status != domain.RecordStatusPending {
		t.Errorf("expected status untouched by dry run, got %s", rec.Status)
	}
	if rec.Digest != nil {
		t.Errorf("expected no digest in dry run, got %+v", rec.Digest)
	}
}

func TestProcessPending_ContinuesPastFailedItems(t *testing.T) {
	db := newServiceTestDB(t)
	srv := newChatTestServer(t, validDigestReply)
	p := newTestPipeline(db, srv.URL, false)

	seedPendingRecord(t, db, "good", domain.RawData{
		"title":   "cool/repo",
		"content": "A fast data pipeline library",
	})
	seedPendingRecord(t, db, "empty", domain.RawData{"title": "only a title"})

	stats, err := p.ProcessPending(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 2 || stats.Processed != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if rec := loadRecord(t, db, "good"); rec.Status != domain.RecordStatusReady {
		t.Errorf("expected good record ready, got %s", rec.Status)
	}
	if rec := loadRecord(t, db, "empty"); rec.Status != domain.RecordStatusPending {
		t.Errorf("expected empty record back in pending, got %s", rec.Status)
	}
}
