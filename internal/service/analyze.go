package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/prompts"
)

// AnalysisService produces the editorial digest for one extracted record via
// a chat-completion model. The parsed digest is validated before it is
// returned; a digest missing any required field is rejected whole.
type AnalysisService struct {
	chat         *chatClient
	systemPrompt string
}

// AnalysisConfig holds configuration for the analysis service. The language
// codes pick the translation target (primary) and summary language
// (secondary); empty values default to ko/en.
type AnalysisConfig struct {
	Model             string
	APIKey            string
	BaseURL           string
	PrimaryLanguage   string
	SecondaryLanguage string
}

// AnalysisInput is the extracted material handed to the model.
type AnalysisInput struct {
	Platform string
	Title    string
	Author   string
	Content  string
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(cfg *AnalysisConfig) *AnalysisService {
	primary := cfg.PrimaryLanguage
	if primary == "" {
		primary = "ko"
	}
	secondary := cfg.SecondaryLanguage
	if secondary == "" {
		secondary = "en"
	}
	return &AnalysisService{
		chat:         newChatClient(cfg.Model, cfg.APIKey, cfg.BaseURL, 120*time.Second),
		systemPrompt: prompts.AnalysisSystem(primary, secondary),
	}
}

// GetModel returns the model name being used.
func (s *AnalysisService) GetModel() string {
	return s.chat.model
}

// Analyze runs one digest request and returns the validated result.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - input: extracted record content.
//
// Returns:
//   - *domain.DigestResult: validated digest with the model name stamped.
//   - error: non-nil if the call fails, the response carries no JSON, or the
//     digest fails validation.
func (s *AnalysisService) Analyze(ctx context.Context, input *AnalysisInput) (*domain.DigestResult, error) {
	var sb strings.Builder
	sb.WriteString(prompts.AnalysisUserPrompt)
	sb.WriteString("Platform: " + input.Platform + "\n")
	sb.WriteString("Title: " + input.Title + "\n")
	if input.Author != "" {
		sb.WriteString("Author: " + input.Author + "\n")
	}
	sb.WriteString("\n" + input.Content)

	messages := []chatMessage{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: sb.String()},
	}

	content, err := s.chat.complete(ctx, messages, 1500)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	jsonStr, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("analysis response: %w", err)
	}

	var digest domain.DigestResult
	if err := json.Unmarshal([]byte(jsonStr), &digest); err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	if err := validateDigest(&digest); err != nil {
		return nil, fmt.Errorf("invalid digest: %w", err)
	}

	digest.Model = s.chat.model
	return &digest, nil
}

// validateDigest checks the required digest fields. A digest that fails here
// is discarded entirely so records never carry partial analysis output.
func validateDigest(d *domain.DigestResult) error {
	if strings.TrimSpace(d.SummaryOneline) == "" {
		return errors.New("summary_oneline is empty")
	}
	if strings.TrimSpace(d.TranslatedTitle) == "" {
		return errors.New("translated_title is empty")
	}
	if strings.TrimSpace(d.TranslatedContent) == "" {
		return errors.New("translated_content is empty")
	}
	if strings.TrimSpace(d.ScoreReason) == "" {
		return errors.New("score_reason is empty")
	}
	if len(d.CategoryTags) == 0 {
		return errors.New("category_tags is empty")
	}
	if d.RecommendScore < 1 || d.RecommendScore > 10 {
		return fmt.Errorf("recommend_score %d out of range", d.RecommendScore)
	}
	return nil
}

// extractJSONObject pulls the first complete JSON object out of model output.
// Models wrap JSON in markdown fences or prose; fences are stripped first,
// then braces are matched with string awareness so braces inside string
// values do not end the object early.
func extractJSONObject(content string) (string, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		if idx := strings.Index(content, "\n"); idx != -1 {
			content = content[idx+1:]
		}
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	if start == -1 {
		return "", errors.New("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return content[start : i+1], nil
				}
			}
		}
	}

	return "", errors.New("unterminated JSON object in response")
}
