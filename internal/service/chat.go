package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// chatClient is a thin wrapper over an OpenAI-compatible chat completions
// endpoint, shared by the vision and analysis services.
type chatClient struct {
	client   *resty.Client
	model    string
	endpoint string
}

// newChatClient builds a chat client for the given provider settings.
func newChatClient(model, apiKey, baseURL string, timeout time.Duration) *chatClient {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &chatClient{
		client:   client,
		model:    model,
		endpoint: baseURL + "/chat/completions",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type chatTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatImageContent struct {
	Type     string       `json:"type"`
	ImageURL chatImageURL `json:"image_url"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// APIStatusError carries the HTTP status of a failed provider call so the
// retry classifier can tell rate limiting apart from other failures.
type APIStatusError struct {
	Status  int
	Message string
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("API error: HTTP %d: %s", e.Status, e.Message)
}

// ClassifyAIError maps a provider error to its backoff class. HTTP 429 and
// quota wording count as rate-limited; everything else is generic.
func ClassifyAIError(err error) ErrorClass {
	var apiErr *APIStatusError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return ErrorClassRateLimited
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota") {
		return ErrorClassRateLimited
	}
	return ErrorClassGeneric
}

// complete sends one chat completion request and returns the assistant text.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - messages: system and user messages for the request.
//   - maxTokens: completion token cap.
//
// Returns:
//   - string: assistant message content.
//   - error: non-nil if the request fails or yields no choices.
func (c *chatClient) complete(ctx context.Context, messages []chatMessage, maxTokens int) (string, error) {
	req := chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		msg := string(httpResp.Body())
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return "", &APIStatusError{Status: httpResp.StatusCode(), Message: msg}
	}

	if resp.Error != nil {
		return "", fmt.Errorf("chat API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from chat API (status: %d)", httpResp.StatusCode())
	}

	return resp.Choices[0].Message.Content, nil
}

// imageDataURL encodes image bytes as a base64 data URL for vision requests.
func imageDataURL(imageData []byte, format string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeTypeFor(format), base64.StdEncoding.EncodeToString(imageData))
}

func mimeTypeFor(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
