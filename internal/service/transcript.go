package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrTranscriptUnavailable signals that no transcript track exists for the
// requested language. It is distinct from hard transport errors: the chain
// moves on to the next language preference instead of failing the record.
var ErrTranscriptUnavailable = errors.New("transcript not available")

// TranscriptSegment is one timed line of a video transcript.
type TranscriptSegment struct {
	Text     string `json:"text"`
	OffsetMs int64  `json:"offset_ms"`
}

// TranscriptService fetches video transcripts, trying a preferred language,
// then a fallback language, then the unmarked auto-generated track, stopping
// at the first success.
type TranscriptService struct {
	client        *resty.Client
	baseURL       string
	preferredLang string
	fallbackLang  string
}

// TranscriptConfig holds configuration for the transcript service.
type TranscriptConfig struct {
	BaseURL           string
	APIKey            string
	PreferredLanguage string
	FallbackLanguage  string
}

// NewTranscriptService creates a new transcript service.
func NewTranscriptService(cfg *TranscriptConfig) *TranscriptService {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetTimeout(30 * time.Second)

	return &TranscriptService{
		client:        client,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		preferredLang: cfg.PreferredLanguage,
		fallbackLang:  cfg.FallbackLanguage,
	}
}

type transcriptResponse struct {
	Segments []TranscriptSegment `json:"segments"`
	Code     string              `json:"code,omitempty"`
}

// Fetch retrieves the transcript text for a video, joining segments with
// newlines. The language order is preferred, fallback, then unmarked track.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: platform video identifier.
//
// Returns:
//   - string: joined transcript text.
//   - error: ErrTranscriptUnavailable when no track exists in any language,
//     or the hard error from the first failing request.
func (s *TranscriptService) Fetch(ctx context.Context, videoID string) (string, error) {
	langs := []string{s.preferredLang, s.fallbackLang, ""}
	for _, lang := range langs {
		segments, err := s.fetchLang(ctx, videoID, lang)
		if err == nil {
			return joinSegments(segments), nil
		}
		if errors.Is(err, ErrTranscriptUnavailable) {
			continue
		}
		return "", err
	}
	return "", ErrTranscriptUnavailable
}

// fetchLang requests one transcript track. An empty lang requests the
// unmarked auto-generated track.
func (s *TranscriptService) fetchLang(ctx context.Context, videoID, lang string) ([]TranscriptSegment, error) {
	var resp transcriptResponse
	req := s.client.R().
		SetContext(ctx).
		SetQueryParam("video_id", videoID).
		SetResult(&resp)
	if lang != "" {
		req.SetQueryParam("lang", lang)
	}

	httpResp, err := req.Get(s.baseURL + "/v1/transcripts")
	if err != nil {
		return nil, fmt.Errorf("failed to call transcript API: %w", err)
	}

	if httpResp.StatusCode() == http.StatusNotFound {
		return nil, ErrTranscriptUnavailable
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return nil, &APIStatusError{Status: httpResp.StatusCode(), Message: string(httpResp.Body())}
	}
	if resp.Code == "language_not_available" || len(resp.Segments) == 0 {
		return nil, ErrTranscriptUnavailable
	}

	return resp.Segments, nil
}

func joinSegments(segments []TranscriptSegment) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}
