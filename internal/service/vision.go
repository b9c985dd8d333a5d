package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minho/pressroom/internal/prompts"
)

// VisionService recovers post content from crawler screenshots using a
// vision-capable model behind an OpenAI-compatible API.
type VisionService struct {
	chat *chatClient
}

// VisionConfig holds configuration for the vision service.
type VisionConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// VisionExtraction is the structured result recovered from one screenshot.
// PostedAt is the relative timestamp shown on the post ("2h", "3d"),
// normalized to an absolute time by the extraction chain.
type VisionExtraction struct {
	Title    string             `json:"title"`
	Content  string             `json:"content"`
	Author   string             `json:"author"`
	Metrics  map[string]float64 `json:"metrics"`
	PostedAt string             `json:"posted_at"`
}

// NewVisionService creates a new vision service.
func NewVisionService(cfg *VisionConfig) *VisionService {
	return &VisionService{
		chat: newChatClient(cfg.Model, cfg.APIKey, cfg.BaseURL, 60*time.Second),
	}
}

// GetModel returns the model name being used.
func (s *VisionService) GetModel() string {
	return s.chat.model
}

// ExtractPost recovers post fields from a screenshot image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageData: raw image bytes (jpg, png, gif, or webp).
//   - format: image format extension.
//
// Returns:
//   - *VisionExtraction: parsed extraction result.
//   - error: non-nil if the call fails or the response carries no valid JSON.
func (s *VisionService) ExtractPost(ctx context.Context, imageData []byte, format string) (*VisionExtraction, error) {
	messages := []chatMessage{
		{
			Role:    "system",
			Content: prompts.VisionSystemPrompt,
		},
		{
			Role: "user",
			Content: []interface{}{
				chatTextContent{
					Type: "text",
					Text: prompts.VisionUserPrompt,
				},
				chatImageContent{
					Type: "image_url",
					ImageURL: chatImageURL{
						URL:    imageDataURL(imageData, format),
						Detail: "auto",
					},
				},
			},
		},
	}

	content, err := s.chat.complete(ctx, messages, 800)
	if err != nil {
		return nil, fmt.Errorf("vision extraction failed: %w", err)
	}

	jsonStr, err := extractJSONObject(content)
	if err != nil {
		return nil, fmt.Errorf("vision response: %w", err)
	}

	var result VisionExtraction
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}

	return &result, nil
}
