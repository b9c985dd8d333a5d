package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minho/pressroom/internal/domain"
)

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "hours short", input: "2h", want: now.Add(-2 * time.Hour)},
		{name: "hours word", input: "5 hours ago", want: now.Add(-5 * time.Hour)},
		{name: "minutes short", input: "30m", want: now.Add(-30 * time.Minute)},
		{name: "minutes word", input: "10 min", want: now.Add(-10 * time.Minute)},
		{name: "seconds", input: "45s", want: now.Add(-45 * time.Second)},
		{name: "days", input: "3d", want: now.AddDate(0, 0, -3)},
		{name: "weeks", input: "2w", want: now.AddDate(0, 0, -14)},
		{name: "months not minutes", input: "2mo", want: now.AddDate(0, -2, 0)},
		{name: "months word", input: "1 month ago", want: now.AddDate(0, -1, 0)},
		{name: "years", input: "1y", want: now.AddDate(-1, 0, 0)},
		{name: "just now", input: "just now", want: now},
		{name: "uppercase", input: "4H", want: now.Add(-4 * time.Hour)},
		{name: "empty", input: "", wantErr: true},
		{name: "no amount", input: "yesterday", wantErr: true},
		{name: "unknown unit", input: "3fortnights", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExtractionChain_RawDataFirst(t *testing.T) {
	chain := NewExtractionChain(nil, nil, nil)
	chain.now = func() time.Time { return time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) }

	rec := &domain.IngestionRecord{
		ID:       "r1",
		Platform: domain.PlatformGitHub,
		RawData: domain.RawData{
			"title":     "cool/repo",
			"content":   "A fast data pipeline library",
			"author":    "cool",
			"posted_at": "2026-08-20T10:00:00Z",
			"metrics":   map[string]interface{}{"stars": float64(1200)},
		},
	}

	result, err := chain.Extract(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Source != "raw" {
		t.Errorf("expected raw source, got %s", result.Source)
	}
	if result.Title != "cool/repo" || result.Author != "cool" {
		t.Errorf("unexpected fields: %+v", result)
	}
	if result.Metrics["stars"] != 1200 {
		t.Errorf("expected stars metric, got %v", result.Metrics)
	}
	if result.PostedAt == nil || result.PostedAt.Day() != 20 {
		t.Errorf("expected posted_at parsed, got %v", result.PostedAt)
	}
}

func TestExtractionChain_RawDataTextFallbackKeys(t *testing.T) {
	chain := NewExtractionChain(nil, nil, nil)

	tests := []struct {
		name string
		raw  domain.RawData
		want string
	}{
		{name: "content key", raw: domain.RawData{"content": "from content"}, want: "from content"},
		{name: "text key", raw: domain.RawData{"text": "from text"}, want: "from text"},
		{name: "description key", raw: domain.RawData{"description": "from description"}, want: "from description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &domain.IngestionRecord{RawData: tt.raw}
			result, err := chain.Extract(context.Background(), rec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Content != tt.want {
				t.Errorf("expected %q, got %q", tt.want, result.Content)
			}
		})
	}
}

func TestExtractionChain_TitleFallsBackToFirstLine(t *testing.T) {
	chain := NewExtractionChain(nil, nil, nil)

	rec := &domain.IngestionRecord{
		RawData: domain.RawData{"text": "First line of the post\nand the rest of it"},
	}
	result, err := chain.Extract(context.Background(), rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "First line of the post" {
		t.Errorf("unexpected fallback title: %q", result.Title)
	}
}

func TestExtractionChain_Unextractable(t *testing.T) {
	chain := NewExtractionChain(nil, nil, nil)

	rec := &domain.IngestionRecord{
		ID:       "r2",
		Platform: domain.PlatformX,
		RawData:  domain.RawData{"title": "only a title"},
	}

	_, err := chain.Extract(context.Background(), rec)
	if !errors.Is(err, ErrUnextractable) {
		t.Errorf("expected ErrUnextractable, got %v", err)
	}
}

func TestExtractionChain_WhitespaceContentIsUnextractable(t *testing.T) {
	chain := NewExtractionChain(nil, nil, nil)

	rec := &domain.IngestionRecord{
		RawData: domain.RawData{"content": "   \n  "},
	}
	_, err := chain.Extract(context.Background(), rec)
	if !errors.Is(err, ErrUnextractable) {
		t.Errorf("expected ErrUnextractable for blank content, got %v", err)
	}
}

func TestFillMissing(t *testing.T) {
	posted := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	dst := &ExtractedContent{
		Title:   "from crawler",
		Metrics: map[string]float64{"stars": 100},
	}
	src := &ExtractedContent{
		Title:    "from vision",
		Content:  "body read off the screenshot",
		Author:   "someone",
		Metrics:  map[string]float64{"likes": 5},
		PostedAt: &posted,
	}
	fillMissing(dst, src)

	if dst.Title != "from crawler" {
		t.Errorf("present title overwritten: %q", dst.Title)
	}
	if dst.Metrics["stars"] != 100 || len(dst.Metrics) != 1 {
		t.Errorf("present metrics overwritten: %v", dst.Metrics)
	}
	if dst.Content != "body read off the screenshot" {
		t.Errorf("missing content not filled: %q", dst.Content)
	}
	if dst.Author != "someone" {
		t.Errorf("missing author not filled: %q", dst.Author)
	}
	if dst.PostedAt == nil || !dst.PostedAt.Equal(posted) {
		t.Errorf("missing posted_at not filled: %v", dst.PostedAt)
	}
}

func TestRawMetrics(t *testing.T) {
	raw := domain.RawData{
		"metrics": map[string]interface{}{
			"likes":   float64(10),
			"reposts": "25",
			"junk":    []interface{}{1, 2},
		},
	}
	m := rawMetrics(raw)
	if m["likes"] != 10 {
		t.Errorf("expected likes 10, got %v", m["likes"])
	}
	if m["reposts"] != 25 {
		t.Errorf("expected numeric string parsed to 25, got %v", m["reposts"])
	}
	if _, ok := m["junk"]; ok {
		t.Error("expected non-numeric value dropped")
	}

	if got := rawMetrics(domain.RawData{}); got != nil {
		t.Errorf("expected nil for missing metrics, got %v", got)
	}
}

func TestFirstLine(t *testing.T) {
	long := make([]rune, 120)
	for i := range long {
		long[i] = 'a'
	}
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "short single line", input: "hello", want: 5},
		{name: "truncated long line", input: string(long), want: 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstLine(tt.input); len([]rune(got)) != tt.want {
				t.Errorf("expected %d runes, got %d", tt.want, len([]rune(got)))
			}
		})
	}
}
