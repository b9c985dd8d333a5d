package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/logger"
	"github.com/minho/pressroom/internal/storage"
)

// ErrUnextractable signals that every extraction stage was exhausted without
// producing content. The pipeline skips such records silently instead of
// marking them failed.
var ErrUnextractable = errors.New("no extraction stage produced content")

// maxScreenshotBytes bounds how much image data one record may pull from
// object storage.
const maxScreenshotBytes = 20 << 20

// ExtractedContent is the normalized output of one extraction stage.
type ExtractedContent struct {
	Title   string
	Content string
	Author  string
	Metrics map[string]float64
	// PostedAt is nil when no stage could recover a post time.
	PostedAt *time.Time
	// Source names the stage that produced the content: raw, screenshot,
	// or transcript.
	Source string
}

// ExtractionChain recovers analyzable text from an ingestion record by trying
// stages in a fixed order: crawler raw data first, then screenshot vision,
// then video transcript. The first stage that yields body content wins;
// stages that do not apply to the record are passed over without error.
type ExtractionChain struct {
	vision     *VisionService
	transcript *TranscriptService
	store      storage.ScreenshotStore
	now        func() time.Time
}

// NewExtractionChain creates an extraction chain. Any of vision, transcript,
// or store may be nil, which disables the stages that need them.
func NewExtractionChain(vision *VisionService, transcript *TranscriptService, store storage.ScreenshotStore) *ExtractionChain {
	return &ExtractionChain{
		vision:     vision,
		transcript: transcript,
		store:      store,
		now:        time.Now,
	}
}

// Extract runs the stage chain for one record. Crawler raw data seeds the
// result; when it already carries both a title and body the chain stops
// there. Otherwise the screenshot and transcript stages fill in fields still
// missing; structured data already present is never overwritten.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: the ingestion record to extract.
//
// Returns:
//   - *ExtractedContent: the merged result once body content exists.
//   - error: ErrUnextractable when no stage yielded body content, or the hard
//     error of the first stage that applied but failed.
func (c *ExtractionChain) Extract(ctx context.Context, rec *domain.IngestionRecord) (*ExtractedContent, error) {
	result := c.fromRawData(rec)
	if result.Title != "" && result.Content != "" {
		result.Source = "raw"
		return result, nil
	}

	vis, ok, err := c.fromScreenshot(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("screenshot extraction: %w", err)
	}
	if ok {
		fillMissing(result, vis)
		if result.Content != "" {
			result.Source = "screenshot"
			return c.finish(result), nil
		}
	}

	if result.Content == "" {
		text, ok, err := c.fromTranscript(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("transcript extraction: %w", err)
		}
		if ok {
			result.Content = text
			result.Source = "transcript"
			return c.finish(result), nil
		}
	}

	if result.Content == "" {
		return nil, ErrUnextractable
	}
	result.Source = "raw"
	return c.finish(result), nil
}

// finish applies the title fallback once body content is settled.
func (c *ExtractionChain) finish(result *ExtractedContent) *ExtractedContent {
	if result.Title == "" {
		result.Title = firstLine(result.Content)
	}
	return result
}

// fillMissing copies fields from src into dst slots that are still empty.
func fillMissing(dst, src *ExtractedContent) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Content == "" {
		dst.Content = src.Content
	}
	if dst.Author == "" {
		dst.Author = src.Author
	}
	if dst.Metrics == nil {
		dst.Metrics = src.Metrics
	}
	if dst.PostedAt == nil {
		dst.PostedAt = src.PostedAt
	}
}

// fromRawData seeds the result from the crawler payload. The result may be
// partial; later stages only fill what is missing.
func (c *ExtractionChain) fromRawData(rec *domain.IngestionRecord) *ExtractedContent {
	raw := rec.RawData
	content := raw.String("content")
	if content == "" {
		content = raw.String("text")
	}
	if content == "" {
		content = raw.String("description")
	}

	result := &ExtractedContent{
		Title:   strings.TrimSpace(raw.String("title")),
		Content: strings.TrimSpace(content),
		Author:  raw.String("author"),
		Metrics: rawMetrics(raw),
	}
	if ts := raw.String("posted_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			result.PostedAt = &t
		} else if t, err := ParseRelativeTime(ts, c.now()); err == nil {
			result.PostedAt = &t
		}
	}
	return result
}

// fromScreenshot downloads the record's screenshot and asks the vision model
// to read it. The stage does not apply when the record has no screenshot key
// or the chain has no vision service; a screenshot missing from storage also
// passes the stage over so the transcript stage can still run.
func (c *ExtractionChain) fromScreenshot(ctx context.Context, rec *domain.IngestionRecord) (*ExtractedContent, bool, error) {
	if c.vision == nil || c.store == nil || rec.ScreenshotKey == "" {
		return nil, false, nil
	}

	exists, err := c.store.Exists(ctx, rec.ScreenshotKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check screenshot: %w", err)
	}
	if !exists {
		logger.CtxWarn(ctx, "Screenshot %s not found in storage, skipping stage", rec.ScreenshotKey)
		return nil, false, nil
	}

	reader, err := c.store.Download(ctx, rec.ScreenshotKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download screenshot: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxScreenshotBytes))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read screenshot: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("screenshot is not a decodable image: %w", err)
	}

	extraction, err := c.vision.ExtractPost(ctx, data, format)
	if err != nil {
		return nil, false, err
	}

	result := &ExtractedContent{
		Title:   strings.TrimSpace(extraction.Title),
		Content: strings.TrimSpace(extraction.Content),
		Author:  extraction.Author,
		Metrics: extraction.Metrics,
	}
	if extraction.PostedAt != "" {
		if t, err := ParseRelativeTime(extraction.PostedAt, c.now()); err == nil {
			result.PostedAt = &t
		}
	}
	return result, true, nil
}

// fromTranscript fetches the video transcript for video records. The stage
// does not apply to non-video records; a video with no transcript track in
// any language passes the stage over.
func (c *ExtractionChain) fromTranscript(ctx context.Context, rec *domain.IngestionRecord) (string, bool, error) {
	if c.transcript == nil {
		return "", false, nil
	}
	videoID := rec.TranscriptSourceID
	if videoID == "" && rec.Platform.IsVideo() {
		videoID = rec.PlatformID
	}
	if videoID == "" {
		return "", false, nil
	}

	text, err := c.transcript.Fetch(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTranscriptUnavailable) {
			return "", false, nil
		}
		return "", false, err
	}
	if strings.TrimSpace(text) == "" {
		return "", false, nil
	}
	return text, true, nil
}

// rawMetrics pulls numeric engagement counts out of a crawler payload.
func rawMetrics(raw domain.RawData) map[string]float64 {
	m, ok := raw["metrics"].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				out[k] = f
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// firstLine returns the first line of text, truncated to 80 runes, for use
// as a fallback title.
func firstLine(text string) string {
	line := text
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > 80 {
		line = string(runes[:80])
	}
	return line
}

// ParseRelativeTime converts a relative timestamp shown on a post ("2h",
// "3 days ago") into an absolute time before now. The "mo" unit is matched
// before "m" so months are not mistaken for minutes.
// Parameters:
//   - s: relative timestamp string.
//   - now: reference time.
//
// Returns:
//   - time.Time: the resolved absolute time.
//   - error: non-nil when the string has no recognizable amount or unit.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " ago")
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty relative time")
	}
	if s == "now" || s == "just now" {
		return now, nil
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return time.Time{}, fmt.Errorf("no amount in relative time %q", s)
	}
	amount, err := strconv.Atoi(s[:i])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad amount in relative time %q", s)
	}
	unit := strings.TrimSpace(s[i:])
	unit = strings.TrimSuffix(unit, "s")

	switch {
	case unit == "mo" || unit == "month":
		return now.AddDate(0, -amount, 0), nil
	case unit == "y" || unit == "yr" || unit == "year":
		return now.AddDate(-amount, 0, 0), nil
	case unit == "w" || unit == "wk" || unit == "week":
		return now.AddDate(0, 0, -7*amount), nil
	case unit == "d" || unit == "day":
		return now.AddDate(0, 0, -amount), nil
	case unit == "h" || unit == "hr" || unit == "hour":
		return now.Add(-time.Duration(amount) * time.Hour), nil
	case unit == "m" || unit == "min" || unit == "minute":
		return now.Add(-time.Duration(amount) * time.Minute), nil
	case unit == "s" || unit == "sec" || unit == "second":
		return now.Add(-time.Duration(amount) * time.Second), nil
	}
	return time.Time{}, fmt.Errorf("unknown unit in relative time %q", s)
}
