// internal/infra/gemini/client.go
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"interaction_log_bot/internal/domain/ai"
)

// Client implements the ai.Client interface against the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a Gemini-backed completion client from an API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// Complete performs one zero-temperature, single-turn, JSON-only
// completion. The extraction contract forbids prose; requesting a JSON
// MIME type keeps the model from wrapping output in commentary.
func (c *Client) Complete(ctx context.Context, model, system, user string) (string, error) {
	temp := float32(0)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		if isModelNotFound(err) {
			return "", ai.ErrModelNotFound
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

// isModelNotFound matches the API's rejection of an unknown model id.
func isModelNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "model") {
		return false
	}
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found") || strings.Contains(msg, "is not supported")
}
